package models

import "time"

// UploadedFile is a document received from the browser, held only for the
// duration of one processing action.
type UploadedFile struct {
	Name string
	Data []byte
}

// Page is the extracted text of one PDF page
type Page struct {
	Source     string
	PageNumber int
	TotalPages int
	Content    string
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	ID         string
	Content    string
	Source     string
	PageNumber int
	ChunkID    int
	Score      float32
}

// Answer is the generated reply together with the passages it was built from.
type Answer struct {
	Query   string
	Content string
	Context []Chunk
	Refused bool
	Elapsed time.Duration
}
