package parser

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"docqa/internal/models"
)

// Loader turns a document on disk into page records. source is the
// user-facing name recorded in the page metadata.
type Loader interface {
	Load(ctx context.Context, path, source string) ([]models.Page, error)
}

// PDFLoader extracts plain text page by page.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader { return &PDFLoader{} }

func (l *PDFLoader) Load(ctx context.Context, path, source string) (pages []models.Page, err error) {
	// ledongthuc/pdf panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse %s: %v", source, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			log.Warn().Str("source", source).Int("page_number", i).Msg("Null page encountered")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from %s page %d: %w", source, i, err)
		}
		pages = append(pages, models.Page{
			Source:     source,
			PageNumber: i,
			TotalPages: numPages,
			Content:    pageText,
		})
	}
	log.Debug().Str("source", source).Int("pages", len(pages)).Msg("Parsed PDF")
	return pages, nil
}
