package llmservice

import (
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

// NewChatModel creates a chat client against an OpenAI-compatible endpoint.
func NewChatModel(cfg config.LLMConfig, apiKey string) (*openai.LLM, error) {
	log.Debug().Interface("config", map[string]any{
		"base_url":    cfg.BaseURL,
		"model":       cfg.Model,
		"temperature": cfg.Temperature,
		"max_tokens":  cfg.MaxTokens,
	}).Msg("Creating chat model")

	return openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(cfg.Model),
	)
}

// CallOptions returns the generation options configured for every request.
func CallOptions(cfg config.LLMConfig) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(cfg.Temperature)}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	return opts
}
