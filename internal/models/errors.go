package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of one of the pipeline stages.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindExtraction
	KindEmbeddingService
	KindMissingCredential
	KindGenerationService
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindExtraction:
		return "extraction"
	case KindEmbeddingService:
		return "embedding_service"
	case KindMissingCredential:
		return "missing_credential"
	case KindGenerationService:
		return "generation_service"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Err, when set, is the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error wrapping cause (which may be nil).
func NewError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
