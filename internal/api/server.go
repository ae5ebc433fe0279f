package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/baxromumarov/job-sentinel/internal/core"
	"github.com/baxromumarov/job-sentinel/internal/resume"
)

type Server struct {
	router   *chi.Mux
	sentinel *core.Sentinel
	validate *validator.Validate
	webDir   string
}

// NewServer wires the dashboard API. When webDir is non-empty its files are
// served at the root.
func NewServer(sentinel *core.Sentinel, webDir string) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		sentinel: sentinel,
		validate: validator.New(),
		webDir:   webDir,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/state", s.handleState)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/logs", s.handleLogs)
	s.router.Get("/agents", s.handleAgents)
	s.router.Post("/reset", s.handleReset)

	s.router.Route("/profile", func(r chi.Router) {
		r.Get("/", s.handleGetProfile)
		r.Put("/source", s.handleSetSource)
		r.Post("/upload", s.handleUpload)
		r.Post("/sample", s.handleSample)
		r.Post("/lock", s.handleLock)
	})

	s.router.Route("/watchlist", func(r chi.Router) {
		r.Get("/", s.handleListWatchlist)
		r.Post("/", s.handleAddWatch)
		r.Delete("/{id}", s.handleRemoveWatch)
	})

	s.router.Get("/alerts", s.handleListAlerts)
	s.router.Post("/alerts/{id}/archive", s.handleToggleArchive)

	s.router.Route("/monitor", func(r chi.Router) {
		r.Get("/", s.handleMonitorState)
		r.Post("/start", s.handleMonitorStart)
		r.Post("/stop", s.handleMonitorStop)
	})

	if s.webDir != "" {
		FileServer(s.router, "/", http.Dir(s.webDir))
	}
}

func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps domain errors onto status codes.
func respondErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, resume.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrProfileBusy), errors.Is(err, core.ErrSourceChanged):
		status = http.StatusConflict
	case errors.Is(err, core.ErrExternalService):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	respondError(w, status, err.Error())
}
