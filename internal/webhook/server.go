package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/session"
)

// Server relays signed notifications to channels.
type Server struct {
	config Config
	out    Sayer
	events Publisher
	logger *slog.Logger
	server *http.Server
}

// New applies endpoint defaults. pub may be nil.
func New(config Config, out Sayer, pub Publisher, logger *slog.Logger) *Server {
	for i := range config.Endpoints {
		ep := &config.Endpoints[i]
		if ep.MaxBodySize <= 0 {
			ep.MaxBodySize = DefaultMaxBodySize
		}
		if ep.SignatureHeader == "" {
			ep.SignatureHeader = DefaultSignatureHeader
		}
	}
	return &Server{config: config, out: out, events: pub, logger: logger}
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info("Webhook server starting", "listen", s.config.Listen, "endpoints", len(s.config.Endpoints))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	for i := range s.config.Endpoints {
		ep := &s.config.Endpoints[i]
		r.Post(ep.Path, s.relay(ep))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "endpoint not found")
	})
	return r
}

// loggingMiddleware never logs bodies.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("webhook request",
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) relay(ep *EndpointConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, ep.MaxBodySize+1))
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if int64(len(body)) > ep.MaxBodySize {
			respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}

		if err := verifySignature(body, r.Header.Get(ep.SignatureHeader), ep.Secret); err != nil {
			s.logger.Warn("Webhook signature rejected", "path", ep.Path, "header", ep.SignatureHeader)
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}

		lines := messageLines(body)
		if len(lines) == 0 {
			respondError(w, http.StatusBadRequest, "empty message")
			return
		}
		dropped := max(0, len(lines)-MaxLines)
		lines = lines[:len(lines)-dropped]

		for i, line := range lines {
			if err := s.out.Say(ep.Channel, ep.Prefix+line); err != nil {
				status := http.StatusBadGateway
				if errors.Is(err, session.ErrClosed) {
					status = http.StatusServiceUnavailable
				}
				s.logger.Error("Failed to relay webhook", "path", ep.Path, "channel", ep.Channel, "sent", i, "error", err)
				respondError(w, status, "failed to send message")
				return
			}
		}

		if s.events != nil {
			s.events.Publish(events.TypeWebhook, map[string]any{
				"path":    ep.Path,
				"channel": ep.Channel,
				"lines":   len(lines),
			})
		}
		respondJSON(w, http.StatusAccepted, RelayResponse{Channel: ep.Channel, Lines: len(lines), Dropped: dropped})
	}
}

// messageLines extracts the non-blank lines to relay. A JSON object with a
// "text" field contributes that field; any other body is taken as text.
func messageLines(body []byte) []string {
	text := string(body)
	var req relayRequest
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &req); err == nil {
			text = req.Text
		}
	}

	var out []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
