package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/urfave/negroni"

	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/internal/session"
)

const (
	cookieName = "docqa_session"
	// multipart parts above this size spill to temp files
	maxMemory = 32 << 20
)

// Server is the browser front end of one Controller.
type Server struct {
	ctrl  *session.Controller
	store *session.Store
	cfg   config.ServerConfig
}

func NewServer(ctrl *session.Controller, store *session.Store, cfg config.ServerConfig) *Server {
	return &Server{ctrl: ctrl, store: store, cfg: cfg}
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/process", s.handleProcess).Methods(http.MethodPost)
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return r
}

// Handler wraps the router with recovery and request logging.
func (s *Server) Handler() http.Handler {
	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(negroni.HandlerFunc(requestLogger))
	n.UseHandler(s.Routes())
	return n
}

func requestLogger(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	start := time.Now()
	next(rw, r)

	status := 0
	if res, ok := rw.(negroni.ResponseWriter); ok {
		status = res.Status()
	}
	log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("Request handled")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// session returns the caller's session, creating one and setting the
// cookie when the cookie is missing or the session expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.State, error) {
	if c, err := r.Cookie(cookieName); err == nil {
		if st, ok := s.store.Get(c.Value); ok {
			return st, nil
		}
	}
	st, err := s.store.Create()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    st.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return st, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st, err := s.session(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Error creating session")
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}

	data, err := newPageData(st.View(), s.ctrl.CredentialError(), s.cfg.MaxUploadMB)
	if err != nil {
		log.Error().Err(err).Msg("Error rendering answer")
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Error executing template")
	}
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	st, err := s.session(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Error creating session")
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}

	files, err := s.readUploads(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	// the outcome is recorded on the session and shown after the redirect
	_ = s.ctrl.ProcessDocuments(context.WithoutCancel(r.Context()), st, files)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	st, err := s.session(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Error creating session")
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}

	// without an index the page already shows the guidance
	if st.Ready() {
		_, _ = s.ctrl.Ask(context.WithoutCancel(r.Context()), st, r.PostFormValue("question"))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readUploads returns the PDF parts of the "files" field in form order.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]models.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("Error removing multipart temp files")
		}
	}()

	var files []models.UploadedFile
	for _, fh := range r.MultipartForm.File["files"] {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			log.Warn().Str("file", fh.Filename).Msg("Skipping non-PDF upload")
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, models.UploadedFile{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
