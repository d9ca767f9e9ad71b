package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docqa/internal/config"
)

// fakeEmbeddingServer answers /embeddings with one vector per input and
// records the authorization header and batch sizes it saw.
func fakeEmbeddingServer(t *testing.T, auth *string, batches *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		*auth = r.Header.Get("Authorization")

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*batches = append(*batches, len(req.Input))

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(i + 1), 0.5}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestNewEmbedder_BatchesDocuments(t *testing.T) {
	var auth string
	var batches []int
	srv := fakeEmbeddingServer(t, &auth, &batches)
	defer srv.Close()

	embedder, err := NewEmbedder(config.LLMConfig{BaseURL: srv.URL, Model: "test-embed", BatchSize: 2}, "secret")
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}

	vectors, err := embedder.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	if len(batches) != 2 {
		t.Errorf("expected 2 requests for batch size 2, got %v", batches)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
}
