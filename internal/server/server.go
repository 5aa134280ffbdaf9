package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"guestbook/internal/model"
	"guestbook/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	maxFormBytes = 1 << 20

	notFoundPage = "error.html"
	notFoundBody = "<h1>Sorry, page not found...</h1>"

	saveFailedNotice = "Your last message could not be saved. Please try again."
)

//go:embed templates/read.html
var templates embed.FS

var readTmpl = template.Must(template.ParseFS(templates, "templates/read.html"))

// Submitter persists a message and returns its timestamp key.
type Submitter interface {
	Submit(ctx context.Context, msg model.Message) (string, error)
}

type Server struct {
	store   store.Store
	writer  Submitter
	logger  *zap.Logger
	root    http.FileSystem
	notices *notices
	router  *mux.Router
	handler http.Handler
	server  *http.Server
}

// NewServer serves static files from root, lists messages from st and
// submits new ones through writer.
func NewServer(st store.Store, writer Submitter, root string, logger *zap.Logger) *Server {
	s := &Server{
		store:   st,
		writer:  writer,
		logger:  logger,
		root:    http.Dir(root),
		notices: newNotices(),
		router:  mux.NewRouter(),
	}
	s.routes()
	s.handler = s.logRequests(s.recoverPanics(s.router))
	return s
}

func (s *Server) routes() {
	get := []string{http.MethodGet, http.MethodHead}

	// Checked in registration order.
	s.router.HandleFunc("/", s.servePage("/index.html")).Methods(get...)
	s.router.HandleFunc("/message", s.servePage("/message.html")).Methods(get...)
	s.router.HandleFunc("/message", s.handleSubmit).Methods(http.MethodPost)
	s.router.HandleFunc("/read", s.handleRead).Methods(get...)
	s.router.PathPrefix("/").HandlerFunc(s.handleStatic).Methods(get...)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveFile(w, r, name)
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, r.URL.Path)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := s.root.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to open file", zap.String("name", name), zap.Error(err))
		}
		s.handleNotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.handleNotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType(name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// contentType maps the few extensions this server knows; everything else is
// served as HTML.
func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".png":
		return "image/png"
	default:
		return "text/html; charset=utf-8"
	}
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list messages", zap.Error(err))
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Entries []model.Entry
		Notice  string
	}{
		Entries: entries,
		Notice:  s.notices.take(r),
	}

	var buf bytes.Buffer
	if err := readTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("Template error", zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn("Malformed form body", zap.Error(err))
		http.Error(w, "Malformed form body", http.StatusBadRequest)
		return
	}

	msg := model.Message{
		Username: r.PostForm.Get("username"),
		Message:  r.PostForm.Get("message"),
	}

	if msg.Valid() {
		if _, err := s.writer.Submit(r.Context(), msg); err != nil {
			s.logger.Error("Failed to save message", zap.Error(err))
			s.notices.set(r, saveFailedNotice)
		}
	}

	// Redirect back home
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if f, err := s.root.Open("/" + notFoundPage); err == nil {
		defer f.Close()
		body, err := io.ReadAll(f)
		if err == nil && len(body) > 0 {
			w.WriteHeader(http.StatusNotFound)
			w.Write(body)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, notFoundBody)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	allow := "GET, HEAD"
	if r.URL.Path == "/message" {
		allow = "GET, HEAD, POST"
	}
	w.Header().Set("Allow", allow)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
