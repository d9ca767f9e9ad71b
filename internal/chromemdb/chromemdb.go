package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docqa/internal/models"
)

const collectionName = "documents"

// meta data keys: source filename, page number, chunk id
const (
	metaSource  = "source"
	metaPage    = "page"
	metaChunkID = "chunk_id"
)

// Embedder is the subset of langchaingo's embeddings.Embedder the index needs.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is an in-memory vector store over one processing run's chunks.
// It is not persisted and is discarded with its session.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	sources    []string
}

// Build embeds every chunk in one batched call and loads the vectors into a
// fresh collection. On any failure no index is returned.
func Build(ctx context.Context, embedder Embedder, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, models.NewError(models.KindExtraction, nil, "no chunks to index")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, models.NewError(models.KindEmbeddingService, err, "failed to embed %d chunks", len(chunks))
	}
	if len(vectors) != len(chunks) {
		return nil, models.NewError(models.KindEmbeddingService, nil, "embedding service returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, queryFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	var sources []string
	seen := make(map[string]bool)
	for i, c := range chunks {
		if len(vectors[i]) == 0 {
			return nil, models.NewError(models.KindEmbeddingService, nil, "empty embedding for chunk %s", c.ID)
		}
		docs[i] = chromem.Document{
			ID:      c.ID,
			Content: c.Content,
			Metadata: map[string]string{
				metaSource:  c.Source,
				metaPage:    strconv.Itoa(c.PageNumber),
				metaChunkID: strconv.Itoa(c.ChunkID),
			},
			Embedding: vectors[i],
		}
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, models.NewError(models.KindEmbeddingService, err, "failed to add documents")
	}
	log.Debug().Int("documents", collection.Count()).Strs("sources", sources).Msg("Vector index built")

	return &Index{db: db, collection: collection, sources: sources}, nil
}

func queryFunc(embedder Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}

// Search returns up to k chunks ordered by descending similarity to query.
// k is clamped to the number of indexed chunks.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query must be provided")
	}
	if n := ix.collection.Count(); k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, models.NewError(models.KindEmbeddingService, err, "failed to query by similarity")
	}

	chunks := make([]models.Chunk, len(results))
	for i, r := range results {
		page, _ := strconv.Atoi(r.Metadata[metaPage])
		chunkID, _ := strconv.Atoi(r.Metadata[metaChunkID])
		chunks[i] = models.Chunk{
			ID:         r.ID,
			Content:    r.Content,
			Source:     r.Metadata[metaSource],
			PageNumber: page,
			ChunkID:    chunkID,
			Score:      r.Similarity,
		}
	}
	return chunks, nil
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Sources returns the indexed file names in upload order.
func (ix *Index) Sources() []string {
	return append([]string(nil), ix.sources...)
}

// Close drops the collection so its vectors can be collected.
func (ix *Index) Close() error {
	if err := ix.db.DeleteCollection(ix.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
