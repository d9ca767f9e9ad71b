package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"docqa/internal/chromemdb"
	"docqa/internal/models"
	"docqa/internal/rag"
)

// ErrNotReady is returned by Ask while the session has no index.
var ErrNotReady = errors.New("no documents have been processed")

var errNoFiles = models.NewError(models.KindEmptyInput, nil, "no files uploaded")

type Ingester interface {
	Ingest(ctx context.Context, files []models.UploadedFile) ([]models.Page, error)
}

type Splitter interface {
	Split(pages []models.Page) ([]models.Chunk, error)
}

// Services builds the remote clients for one action. The API key is looked
// up per action, so clients are never cached across actions.
type Services interface {
	Embedder(apiKey string) (chromemdb.Embedder, error)
	ChatModel(apiKey string) (rag.ChatModel, error)
}

// Controller runs the two user actions against a session State.
type Controller struct {
	ingester Ingester
	splitter Splitter
	services Services
	apiKey   func() (string, error)
	topK     int
	callOpts []llms.CallOption
}

func NewController(ingester Ingester, splitter Splitter, services Services, apiKey func() (string, error), topK int, callOpts ...llms.CallOption) *Controller {
	return &Controller{
		ingester: ingester,
		splitter: splitter,
		services: services,
		apiKey:   apiKey,
		topK:     topK,
		callOpts: callOpts,
	}
}

// CredentialError reports whether the API key is currently missing.
func (c *Controller) CredentialError() error {
	_, err := c.apiKey()
	return err
}

// ProcessDocuments ingests, splits and indexes files. On success the new
// index replaces the old one; on any failure the session has no index.
func (c *Controller) ProcessDocuments(ctx context.Context, st *State, files []models.UploadedFile) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	start := time.Now()
	ix, err := c.buildIndex(ctx, files)
	if err != nil {
		st.reset()
		st.notice = NoticeFor(err)
		log.Error().Err(err).Str("session", st.ID).Str("kind", models.KindOf(err).String()).Int("files", len(files)).Msg("Error processing documents")
		return err
	}

	st.setIndex(ix)
	st.notice = Notice{Level: LevelSuccess, Text: ReadyMessage}
	log.Info().Str("session", st.ID).Strs("files", st.files).Int("chunks", st.chunkCount).Dur("elapsed", time.Since(start)).Msg("Documents processed")
	return nil
}

func (c *Controller) buildIndex(ctx context.Context, files []models.UploadedFile) (*chromemdb.Index, error) {
	if len(files) == 0 {
		return nil, errNoFiles
	}
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}
	embedder, err := c.services.Embedder(key)
	if err != nil {
		return nil, models.NewError(models.KindEmbeddingService, err, "failed to initialize embedder")
	}

	pages, err := c.ingester.Ingest(ctx, files)
	if err != nil {
		return nil, err
	}
	chunks, err := c.splitter.Split(pages)
	if err != nil {
		return nil, models.NewError(models.KindExtraction, err, "failed to split documents")
	}
	log.Debug().Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Split documents")

	return chromemdb.Build(ctx, embedder, chunks)
}

// Ask answers query from the session's index. Without an index it returns
// ErrNotReady and makes no remote call. A failure leaves the phase unchanged.
func (c *Controller) Ask(ctx context.Context, st *State, query string) (*models.Answer, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.phase != IndexReady || st.index == nil {
		st.notice = NoticeFor(ErrNotReady)
		return nil, ErrNotReady
	}

	start := time.Now()
	ans, err := c.answer(ctx, st.index, query)
	if err != nil {
		st.notice = NoticeFor(err)
		log.Error().Err(err).Str("session", st.ID).Str("kind", models.KindOf(err).String()).Msg("Error answering question")
		return nil, err
	}
	ans.Elapsed = time.Since(start)

	st.answer = ans
	st.notice = Notice{}
	log.Info().Str("session", st.ID).Int("context", len(ans.Context)).Bool("refused", ans.Refused).Dur("elapsed", ans.Elapsed).Msg("Question answered")
	return ans, nil
}

func (c *Controller) answer(ctx context.Context, index rag.Searcher, query string) (*models.Answer, error) {
	query = strings.TrimSpace(query)
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}
	llm, err := c.services.ChatModel(key)
	if err != nil {
		return nil, models.NewError(models.KindGenerationService, err, "failed to initialize the LLM")
	}

	chunks, err := rag.NewRetriever(index, c.topK).Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	return rag.NewAnswerer(llm, c.callOpts...).Answer(ctx, query, chunks)
}
