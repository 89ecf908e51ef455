// Package api provides the HTTP API server and handlers for the PageTagz server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pagetagz/pagetagz-server/internal/http/response"
	"github.com/pagetagz/pagetagz-server/internal/service"
	"github.com/pagetagz/pagetagz-server/internal/sse"
	"github.com/pagetagz/pagetagz-server/internal/validation"
)

// Config carries the server's dependencies.
type Config struct {
	Sessions  *service.SessionService
	Tags      *service.TagService
	Bookmarks *service.BookmarkService
	Pages     *service.PageService
	SSE       *sse.Manager
	Logger    *slog.Logger

	// AllowedOrigins are the extension and web origins permitted by CORS.
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions  *service.SessionService
	tags      *service.TagService
	bookmarks *service.BookmarkService
	pages     *service.PageService

	sseHandler *sse.Handler
	validator  *validation.Validator
	router     *chi.Mux
	logger     *slog.Logger

	allowedOrigins []string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg Config) *Server {
	s := &Server{
		sessions:       cfg.Sessions,
		tags:           cfg.Tags,
		bookmarks:      cfg.Bookmarks,
		pages:          cfg.Pages,
		validator:      validation.New(),
		router:         chi.NewRouter(),
		logger:         cfg.Logger,
		allowedOrigins: cfg.AllowedOrigins,
	}

	if cfg.SSE != nil {
		s.sseHandler = sse.NewHandler(cfg.SSE, cfg.Logger, func(r *http.Request) string {
			return getUserID(r.Context())
		})
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The extension popup talks to us from its own origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/logout", s.handleLogout)
		})

		// Protected user endpoints.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleGetCurrentUser)
		})

		// Tags.
		r.Route("/tags", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Get("/{id}", s.handleGetTag)
			r.Patch("/{id}", s.handleUpdateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		// Bookmarks.
		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListBookmarks)
			r.Post("/", s.handleCreateBookmark)
			r.Get("/check", s.handleCheckBookmark)
			r.Post("/click-batch", s.handleClickBatch)
			r.Get("/{id}", s.handleGetBookmark)
			r.Patch("/{id}", s.handleUpdateBookmark)
			r.Delete("/{id}", s.handleDeleteBookmark)
			r.Post("/{id}/click", s.handleClick)
			r.Get("/{id}/icon", s.handleBookmarkIcon)
		})

		// Search.
		r.With(s.requireAuth).Get("/search", s.handleSearch)

		// Page capture.
		r.With(s.requireAuth).Post("/pages/capture", s.handleCapturePage)

		// Event stream.
		if s.sseHandler != nil {
			r.With(s.requireAuth).Get("/events", s.sseHandler.ServeHTTP)
		}
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
