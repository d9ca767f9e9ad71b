package embedding

import (
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

// NewEmbedder creates an embedder against an OpenAI-compatible endpoint.
// Documents are sent in batches of cfg.BatchSize.
func NewEmbedder(cfg config.LLMConfig, apiKey string) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]any{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
		"batch_size":      cfg.BatchSize,
	}).Msg("Creating embedder")

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(false)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	return embeddings.NewEmbedder(llm, opts...)
}
