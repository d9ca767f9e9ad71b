package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"docqa/internal/models"
)

const tempDirPattern = "docqa-upload-*"

// Ingestor writes uploads to a scoped temporary directory and parses them
// into one ordered page sequence.
type Ingestor struct {
	loader   Loader
	tempRoot string
}

// NewIngestor creates an Ingestor. An empty tempRoot means os.TempDir().
func NewIngestor(loader Loader, tempRoot string) *Ingestor {
	return &Ingestor{loader: loader, tempRoot: tempRoot}
}

// Ingest returns the non-blank pages of all files in upload order. The
// temporary directory is removed before Ingest returns, whatever the outcome.
func (in *Ingestor) Ingest(ctx context.Context, files []models.UploadedFile) ([]models.Page, error) {
	if len(files) == 0 {
		return nil, models.NewError(models.KindEmptyInput, nil, "no files uploaded")
	}

	dir, err := os.MkdirTemp(in.tempRoot, tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("Error removing temp dir")
		}
	}()

	var pages []models.Page
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, tempFileName(i, file.Name))
		if err := os.WriteFile(path, file.Data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}

		filePages, err := in.loader.Load(ctx, path, file.Name)
		if err != nil {
			return nil, models.NewError(models.KindExtraction, err, "could not parse %s", file.Name)
		}

		kept := 0
		for _, p := range filePages {
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			pages = append(pages, p)
			kept++
		}
		log.Debug().Str("file", file.Name).Int("pages", len(filePages)).Int("with_text", kept).Msg("Ingested file")
	}

	if len(pages) == 0 {
		return nil, models.NewError(models.KindExtraction, nil, "no text could be extracted from %d file(s)", len(files))
	}
	return pages, nil
}

// tempFileName keeps the base name for readability and prefixes the index so
// two uploads with the same name do not collide.
func tempFileName(i int, name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.pdf"
	}
	return fmt.Sprintf("%03d-%s", i, base)
}
