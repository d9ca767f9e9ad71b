package session

import (
	"docqa/internal/chromemdb"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llmservice"
	"docqa/internal/rag"
)

// RemoteServices builds langchaingo clients for the configured endpoints.
type RemoteServices struct {
	Embedding config.LLMConfig
	Chat      config.LLMConfig
}

func (s RemoteServices) Embedder(apiKey string) (chromemdb.Embedder, error) {
	e, err := embedding.NewEmbedder(s.Embedding, apiKey)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s RemoteServices) ChatModel(apiKey string) (rag.ChatModel, error) {
	llm, err := llmservice.NewChatModel(s.Chat, apiKey)
	if err != nil {
		return nil, err
	}
	return llm, nil
}
