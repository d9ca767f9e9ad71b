package rag

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"

	"docqa/internal/models"
)

// Searcher is implemented by chromemdb.Index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.Chunk, error)
}

// ChatModel is the subset of llms.Model used to generate answers.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Retriever returns the top-k passages of one index for a question.
type Retriever struct {
	index Searcher
	topK  int
}

func NewRetriever(index Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &Retriever{index: index, topK: topK}
}

// Retrieve keeps the order chosen by the index.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.Chunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewError(models.KindEmptyInput, nil, "question is empty")
	}
	chunks, err := r.index.Search(ctx, query, r.topK)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("query", query).Int("results", len(chunks)).Msg("Retrieved context")
	return chunks, nil
}

// Answerer turns a question and its context passages into one model call.
type Answerer struct {
	llm    ChatModel
	prompt prompts.PromptTemplate
	opts   []llms.CallOption
}

func NewAnswerer(llm ChatModel, opts ...llms.CallOption) *Answerer {
	return &Answerer{
		llm:    llm,
		prompt: prompts.NewPromptTemplate(models.AnswerPromptTemplate, []string{"context", "input"}),
		opts:   opts,
	}
}

// BuildPrompt renders the context block, the question and the instruction.
func (a *Answerer) BuildPrompt(query string, chunks []models.Chunk) (string, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return a.prompt.Format(map[string]any{
		"context": strings.Join(texts, models.ContextSeparator),
		"input":   query,
	})
}

// Answer makes exactly one generation request. There is no retry.
func (a *Answerer) Answer(ctx context.Context, query string, chunks []models.Chunk) (*models.Answer, error) {
	prompt, err := a.BuildPrompt(query, chunks)
	if err != nil {
		return nil, models.NewError(models.KindGenerationService, err, "failed to build prompt")
	}

	msgContent := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := a.llm.GenerateContent(ctx, msgContent, a.opts...)
	if err != nil {
		return nil, models.NewError(models.KindGenerationService, err, "chat completion failed")
	}
	if res == nil || len(res.Choices) == 0 {
		return nil, models.NewError(models.KindGenerationService, nil, "chat completion returned no choices")
	}

	content := res.Choices[0].Content
	return &models.Answer{
		Query:   query,
		Content: content,
		Context: chunks,
		Refused: strings.TrimSpace(content) == models.RefusalText,
	}, nil
}
