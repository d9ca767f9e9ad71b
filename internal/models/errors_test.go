package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", cause, KindUnknown},
		{"direct", NewError(KindEmbeddingService, cause, "embed %d chunks", 3), KindEmbeddingService},
		{"wrapped", fmt.Errorf("process: %w", NewError(KindExtraction, nil, "no text")), KindExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := NewError(KindGenerationService, cause, "chat completion")
	if err.Error() != "chat completion: quota exceeded" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	bare := NewError(KindEmptyInput, nil, "no files")
	if bare.Error() != "no files" {
		t.Errorf("unexpected message: %q", bare.Error())
	}
}

func TestKindString(t *testing.T) {
	if KindMissingCredential.String() != "missing_credential" {
		t.Errorf("got %q", KindMissingCredential.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("got %q", Kind(99).String())
	}
}
