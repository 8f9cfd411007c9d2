// Package http exposes the command router over a JSON API. Handlers
// parse and validate input, dispatch one command, and write the
// uniform envelope; no business logic lives here.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fintrack/internal/log"
	"fintrack/internal/router"
	"fintrack/internal/session"
)

// SettingsStore persists small key-value preferences such as the UI
// theme.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type Server struct {
	http.Server

	router   *router.Router
	sessions *session.Manager
	settings SettingsStore
	limiter  *rateLimiter
	logger   *log.Logger
	now      func() time.Time
}

func NewServer(addr string, rt *router.Router, sessions *session.Manager, settings SettingsStore, rateLimitPerMinute int, logger *log.Logger) *Server {
	s := &Server{
		router:   rt,
		sessions: sessions,
		settings: settings,
		limiter:  newRateLimiter(rateLimitPerMinute),
		logger:   logger.WithComponent(log.ComponentHTTP),
		now:      time.Now,
	}

	mux := chi.NewRouter()
	mux.Use(s.requestContext)
	mux.Use(securityHeaders)
	mux.Use(s.logRequests)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/healthz", s.handleHealth)
	mux.Get("/readyz", s.handleReady)

	mux.Route("/api", func(api chi.Router) {
		api.With(s.rateLimit).Post("/auth/login", s.handleLogin)

		api.Group(func(authed chi.Router) {
			authed.Use(s.requireSession)

			authed.Post("/auth/logout", s.handleLogout)
			authed.Get("/auth/session", s.handleSession)
			authed.With(s.rateLimit).Put("/auth/password", s.handleChangePassword)

			authed.Get("/users", s.handleGetUsers)
			authed.With(s.rateLimit).Post("/users", s.handleCreateUser)
			authed.With(s.rateLimit).Put("/users/{id}", s.handleUpdateUser)
			authed.With(s.rateLimit).Delete("/users/{id}", s.handleDeleteUser)

			authed.Get("/categories", s.handleGetCategories)
			authed.With(s.rateLimit).Post("/categories", s.handleCreateCategory)
			authed.With(s.rateLimit).Put("/categories/{id}", s.handleUpdateCategory)
			authed.With(s.rateLimit).Delete("/categories/{id}", s.handleDeleteCategory)

			authed.Get("/transactions", s.handleGetTransactions)
			authed.With(s.rateLimit).Post("/transactions", s.handleCreateTransaction)
			authed.With(s.rateLimit).Put("/transactions/{id}", s.handleUpdateTransaction)
			authed.With(s.rateLimit).Delete("/transactions/{id}", s.handleDeleteTransaction)

			authed.Get("/audit", s.handleGetAuditLogs)

			authed.Get("/dashboard", s.handleDashboard)
			authed.Get("/dashboard/chart", s.handleChartData)
			authed.Get("/reports", s.handleReportData)

			authed.Get("/settings/theme", s.handleGetTheme)
			authed.With(s.rateLimit).Put("/settings/theme", s.handleSetTheme)

			authed.With(s.rateLimit).Post("/backup", s.handleBackup)
			authed.With(s.rateLimit).Post("/restore", s.handleRestore)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown stops the listener and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
}

// handleReady reports not-ready once a restore demands a restart.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.router.RestartRequired() {
		writeError(w, http.StatusServiceUnavailable, "Restart required after restore")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ready"})
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
