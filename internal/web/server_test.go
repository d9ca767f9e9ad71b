package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"docqa/internal/chromemdb"
	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/internal/rag"
	"docqa/internal/session"
)

type fakeIngester struct {
	names []string
}

func (f *fakeIngester) Ingest(_ context.Context, files []models.UploadedFile) ([]models.Page, error) {
	if len(files) == 0 {
		return nil, models.NewError(models.KindEmptyInput, nil, "no files uploaded")
	}
	var pages []models.Page
	for _, file := range files {
		f.names = append(f.names, file.Name)
		pages = append(pages, models.Page{Source: file.Name, PageNumber: 1, TotalPages: 1, Content: string(file.Data)})
	}
	return pages, nil
}

type pageSplitter struct{}

func (pageSplitter) Split(pages []models.Page) ([]models.Chunk, error) {
	chunks := make([]models.Chunk, len(pages))
	for i, p := range pages {
		chunks[i] = models.Chunk{ID: p.Source, Content: p.Content, Source: p.Source, PageNumber: p.PageNumber, ChunkID: 1}
	}
	return chunks, nil
}

type constEmbedder struct{}

func (constEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func (constEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fakeChat struct {
	calls int
}

func (f *fakeChat) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "The penalty is **2%** per week."}}}, nil
}

type fakeServices struct {
	chat *fakeChat
}

func (f *fakeServices) Embedder(string) (chromemdb.Embedder, error) { return constEmbedder{}, nil }
func (f *fakeServices) ChatModel(string) (rag.ChatModel, error)     { return f.chat, nil }

type testApp struct {
	handler  http.Handler
	ingester *fakeIngester
	chat     *fakeChat
	key      string
	cookies  []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{ingester: &fakeIngester{}, chat: &fakeChat{}, key: "nvapi-test"}
	apiKey := func() (string, error) {
		if app.key == "" {
			return "", models.NewError(models.KindMissingCredential, nil, "NVIDIA_API_KEY not found")
		}
		return app.key, nil
	}
	ctrl := session.NewController(app.ingester, pageSplitter{}, &fakeServices{chat: app.chat}, apiKey, 4)
	cfg := config.ServerConfig{MaxUploadMB: 1, SessionTTL: time.Hour}
	app.handler = NewServer(ctrl, session.NewStore(cfg.SessionTTL), cfg).Handler()
	return app
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if cs := rec.Result().Cookies(); len(cs) > 0 {
		a.cookies = cs
	}
	return rec
}

func (a *testApp) page(t *testing.T) string {
	t.Helper()
	rec := a.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	return rec.Body.String()
}

func uploadRequest(t *testing.T, files map[string]string, order ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(files[name]))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func askRequest(question string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(url.Values{"question": {question}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthz(t *testing.T) {
	rec := newTestApp(t).do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndex_NewSessionShowsGuidance(t *testing.T) {
	app := newTestApp(t)
	body := app.page(t)
	if len(app.cookies) != 1 || app.cookies[0].Name != cookieName {
		t.Fatalf("expected a session cookie, got %v", app.cookies)
	}
	if !strings.Contains(body, "click &#39;Process Documents&#39; in the sidebar") {
		t.Error("guidance message missing")
	}
	if strings.Contains(body, `name="question"`) {
		t.Error("question form must be hidden without an index")
	}
}

func TestProcessAndAsk(t *testing.T) {
	app := newTestApp(t)
	app.page(t)

	rec := app.do(t, uploadRequest(t, map[string]string{
		"contract.pdf": "A late delivery penalty of 2% applies per week.",
		"notes.txt":    "ignored",
	}, "contract.pdf", "notes.txt"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /process status = %d", rec.Code)
	}
	if len(app.ingester.names) != 1 || app.ingester.names[0] != "contract.pdf" {
		t.Errorf("expected only the PDF to be ingested, got %v", app.ingester.names)
	}

	body := app.page(t)
	for _, want := range []string{"Vector Store DB is ready!", "<li>contract.pdf</li>", `name="question"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	rec = app.do(t, askRequest("What is the penalty?"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /ask status = %d", rec.Code)
	}
	body = app.page(t)
	for _, want := range []string{
		"Response generated in: ",
		"<strong>2%</strong>",
		"Show Document Context",
		"Source Document 1:",
		`value="What is the penalty?"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if app.chat.calls != 1 {
		t.Errorf("expected one chat call, got %d", app.chat.calls)
	}
}

func TestAsk_WithoutIndex(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, askRequest("What is the penalty?"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /ask status = %d", rec.Code)
	}
	if app.chat.calls != 0 {
		t.Error("chat model called without an index")
	}
}

func TestProcess_EmptyUpload(t *testing.T) {
	app := newTestApp(t)
	app.do(t, uploadRequest(t, nil))
	body := app.page(t)
	if !strings.Contains(body, "Please upload one or more PDF files.") {
		t.Error("empty upload notice missing")
	}
}

func TestProcess_TooLarge(t *testing.T) {
	app := newTestApp(t)
	big := strings.Repeat("A", 2<<20)
	rec := app.do(t, uploadRequest(t, map[string]string{"big.pdf": big}, "big.pdf"))
	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want a rejection", rec.Code)
	}
	if len(app.ingester.names) != 0 {
		t.Error("oversized upload must not be ingested")
	}
}

func TestIndex_MissingCredentialDisablesForms(t *testing.T) {
	app := newTestApp(t)
	app.key = ""
	body := app.page(t)
	if !strings.Contains(body, "NVIDIA_API_KEY not found") {
		t.Error("credential error missing")
	}
	if !strings.Contains(body, `<button type="submit" disabled>Process Documents</button>`) {
		t.Error("process button should be disabled")
	}
}

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	got, err := renderMarkdown("**bold**\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("renderMarkdown: %v", err)
	}
	if !strings.Contains(string(got), "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %s", got)
	}
	if strings.Contains(string(got), "<script>") {
		t.Errorf("raw HTML passed through: %s", got)
	}
}
