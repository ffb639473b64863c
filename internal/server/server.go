// Package server exposes sessions, templates and board exports over HTTP.
//
// Every response body is JSON except exports. Errors carry the coded error
// from pkg/errors:
//
//	{"code": "SESSION_NOT_FOUND", "message": "session 42 not found"}
package server

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/export"
	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/session"
)

// maxBodyBytes bounds request bodies; a session with a few thousand notes
// stays well under it.
const maxBodyBytes = 4 << 20

// Options configures [New].
type Options struct {
	Repo   *session.Repository
	Logger *log.Logger
	Now    func() time.Time

	// DefaultWidth is the board width used by pack and export when the
	// request has no width parameter.
	DefaultWidth float64
}

// Server serves the HTTP API.
type Server struct {
	repo   *session.Repository
	logger *log.Logger
	now    func() time.Time
	width  float64
}

// New creates a server over opts.Repo.
func New(opts Options) *Server {
	s := &Server{
		repo:   opts.Repo,
		logger: opts.Logger,
		now:    opts.Now,
		width:  opts.DefaultWidth,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.width <= 0 {
		s.width = layout.DefaultCanvas.Width
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleStartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Put("/", s.handlePutSession)
			r.Get("/summary", s.handleSummary)
			r.Post("/pack", s.handlePack)
			r.Get("/export.{format}", s.handleExport)
		})
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Post("/", s.handleSaveTemplate)
		r.Put("/{id}", s.handleSaveTemplate)
		r.Delete("/{id}", s.handleDeleteTemplate)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("listening", "addr", addr, "mode", s.repo.Mode())
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status          string `json:"status"`
	Mode            string `json:"mode"`
	CloudWritable   bool   `json:"cloudWritable"`
	OfflineReadOnly bool   `json:"offlineReadOnly"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		Mode:            s.repo.Mode().String(),
		CloudWritable:   s.repo.CloudWritable(),
		OfflineReadOnly: s.repo.OfflineReadOnly(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.RefreshSessions(r.Context())
	if err != nil {
		// The repository already fell back to the offline copy.
		s.logger.Warn("refresh sessions", "err", err)
		w.Header().Set("X-Blurt-Sync-Error", string(errors.GetCode(err)))
	}
	writeJSON(w, http.StatusOK, list)
}

type startRequest struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	DurationSec int    `json:"durationSec"`
	TemplateID  string `json:"templateId,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.TemplateID != "" {
		t, err := s.findTemplate(r.Context(), req.TemplateID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if req.Title == "" {
			req.Title = t.TitleDefault
		}
		if req.Prompt == "" {
			req.Prompt = t.PromptDefault
		}
		if req.DurationSec == 0 {
			req.DurationSec = t.DurationSecDefault
		}
	}
	if req.DurationSec == 0 {
		req.DurationSec = session.DefaultDurationSec
	}

	sess, err := s.repo.StartSession(r.Context(), req.Title, req.Prompt, req.DurationSec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) findTemplate(ctx context.Context, id string) (session.Template, error) {
	for _, t := range s.repo.Templates() {
		if t.ID == id {
			return t, nil
		}
	}
	list, err := s.repo.RefreshTemplates(ctx)
	if err != nil {
		s.logger.Warn("refresh templates", "err", err)
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return session.Template{}, errors.New(errors.ErrCodeTemplateNotFound, "template %s not found", id)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.repo.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var sess session.Session
	if err := decodeBody(r, &sess); err != nil {
		s.writeError(w, err)
		return
	}
	switch {
	case sess.ID == "":
		sess.ID = id
	case sess.ID != id:
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "session id %q does not match path %q", sess.ID, id))
		return
	}
	sess.Normalize()
	if err := s.repo.SaveSession(r.Context(), &sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type summaryResponse struct {
	session.Summary
	Remaining string `json:"remaining"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.repo.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:   sess.Summary(),
		Remaining: sess.FormatRemaining(s.now()),
	})
}

type packResponse struct {
	Width       float64        `json:"width"`
	BoardHeight float64        `json:"boardHeight"`
	Notes       []session.Note `json:"notes"`
}

// handlePack arranges the notes into the grid and persists the result.
func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	width, err := s.widthParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.repo.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	arranged := layout.Pack(sess.Notes, width)
	packed := sess.WithNotes(arranged.Notes)
	if err := s.repo.SaveSession(r.Context(), &packed); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packResponse{
		Width:       width,
		BoardHeight: arranged.BoardHeight,
		Notes:       packed.Notes,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	width, err := s.widthParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.repo.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := export.Render(r.Context(), export.Arrange(*sess, width), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(sess.Title, format)})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.RefreshTemplates(r.Context())
	if err != nil {
		s.logger.Warn("refresh templates", "err", err)
		w.Header().Set("X-Blurt-Sync-Error", string(errors.GetCode(err)))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var t session.Template
	if err := decodeBody(r, &t); err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		if t.ID != "" && t.ID != id {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "template id %q does not match path %q", t.ID, id))
			return
		}
		t.ID = id
		status = http.StatusOK
	}

	saved, err := s.repo.SaveTemplate(r.Context(), t)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, saved)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateTemplateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.DeleteTemplate(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// widthParam reads ?width=, falling back to the server default. The width
// must fit at least one note.
func (s *Server) widthParam(r *http.Request) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("width"))
	if raw == "" {
		return s.width, nil
	}
	width, err := strconv.ParseFloat(raw, 64)
	if err != nil || width < layout.NoteWidth+layout.Padding*2 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "width must be a number of at least %d", int(layout.NoteWidth+layout.Padding*2))
	}
	return width, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch code := errors.GetCodeOr(err, errors.ErrCodeInternal); {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case code == errors.ErrCodeInvalidInput,
		code == errors.ErrCodeInvalidFormat,
		code == errors.ErrCodeInvalidStorageMode:
		return http.StatusBadRequest
	case code == errors.ErrCodeReadOnly:
		return http.StatusConflict
	case code == errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{
		Code:    errors.GetCodeOr(err, errors.ErrCodeInternal),
		Message: errors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
