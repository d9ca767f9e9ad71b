package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"docqa/internal/models"
)

// Chunker splits pages into overlapping windows with a recursive separator
// heuristic: paragraph, line, word, then character.
type Chunker struct {
	splitter textsplitter.TextSplitter
}

// New creates a Chunker. Lengths are counted in runes.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = models.ChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split splits each page on its own so every chunk keeps its page metadata.
// Chunk IDs are numbered over the whole run and are stable for equal input.
func (c *Chunker) Split(pages []models.Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		texts, err := c.splitter.SplitText(page.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s page %d: %w", page.Source, page.PageNumber, err)
		}
		chunkID := 0
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunkID++
			chunks = append(chunks, models.Chunk{
				ID:         fmt.Sprintf("%d", len(chunks)),
				Content:    text,
				Source:     page.Source,
				PageNumber: page.PageNumber,
				ChunkID:    chunkID,
			})
		}
	}
	return chunks, nil
}
