package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/loop"
	"github.com/mattjoyce/ircbotd/internal/metrics"
	"github.com/mattjoyce/ircbotd/internal/remind"
)

// LoopStatus reports the event loop's progress; *loop.Loop implements it.
type LoopStatus interface {
	State() loop.State
	PendingTimers() int
}

// Speaker sends messages on the bot's connection; *session.Session
// implements it. Say must be safe to call from the API goroutine.
type Speaker interface {
	Say(target, text string) error
	Nick() string
}

// ReminderLister reads stored reminders.
type ReminderLister interface {
	List(ctx context.Context, limit int) ([]*remind.Reminder, error)
}

// ChatLogReader reads recent channel activity.
type ChatLogReader interface {
	Recent(ctx context.Context, limit int) ([]chatlog.Entry, error)
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is the bearer token required by every route except /healthz and
	// /metrics.
	APIKey string
}

// Deps are the bot components the API reads from. Nil Reminders or ChatLog
// make their routes answer 404.
type Deps struct {
	Loop      LoopStatus
	Session   Speaker
	Reminders ReminderLister
	ChatLog   ChatLogReader
	Events    *events.Hub
	Metrics   *metrics.Metrics
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance
func New(config Config, deps Deps, logger *slog.Logger) *Server {
	if deps.Events == nil {
		deps.Events = events.NewHub(0)
	}
	return &Server{
		config:    config,
		deps:      deps,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoints.
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/events", s.handleEvents)
		r.Get("/reminders", s.handleReminders)
		r.Get("/chatlog", s.handleChatLog)
		r.Post("/say", s.handleSay)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
