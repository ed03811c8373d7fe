package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/ircmsg"
	"github.com/mattjoyce/ircbotd/internal/loop"
	"github.com/mattjoyce/ircbotd/internal/remind"
	"github.com/mattjoyce/ircbotd/internal/session"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
	maxSayBody       = 4096
)

// handleHealthz answers 200 while the loop is running and 503 otherwise.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		State:         loop.StateConnecting.String(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		StartedAt:     s.startedAt.UTC(),
	}
	if s.deps.Session != nil {
		resp.Nick = s.deps.Session.Nick()
	}

	status := http.StatusOK
	if s.deps.Loop != nil {
		state := s.deps.Loop.State()
		resp.State = state.String()
		resp.PendingTimers = s.deps.Loop.PendingTimers()
		if state != loop.StateRunning {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, status, resp)
}

// handleReminders handles GET /reminders?limit=N.
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reminders == nil {
		writeError(w, http.StatusNotFound, "reminders are not available")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.deps.Reminders.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list reminders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	if list == nil {
		list = []*remind.Reminder{}
	}
	respondJSON(w, http.StatusOK, RemindersResponse{Reminders: list})
}

// handleChatLog handles GET /chatlog?limit=N.
func (s *Server) handleChatLog(w http.ResponseWriter, r *http.Request) {
	if s.deps.ChatLog == nil {
		writeError(w, http.StatusNotFound, "chat log is not available")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.deps.ChatLog.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read chat log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read chat log")
		return
	}
	if entries == nil {
		entries = []chatlog.Entry{}
	}
	respondJSON(w, http.StatusOK, ChatLogResponse{Entries: entries})
}

// handleSay handles POST /say and sends one PRIVMSG.
func (s *Server) handleSay(w http.ResponseWriter, r *http.Request) {
	if s.deps.Session == nil {
		writeError(w, http.StatusServiceUnavailable, "not connected")
		return
	}

	var req SayRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSayBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Target == "" || strings.ContainsAny(req.Target, " ,") {
		writeError(w, http.StatusBadRequest, "target must be a single nick or channel")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := s.deps.Session.Say(req.Target, req.Text); err != nil {
		switch {
		case errors.Is(err, session.ErrBadLine):
			writeError(w, http.StatusBadRequest, "text must be a single line")
		case errors.Is(err, session.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, "connection closed")
		default:
			s.logger.Error("failed to send message", "target", req.Target, "error", err)
			writeError(w, http.StatusBadGateway, "failed to send message")
		}
		return
	}

	s.deps.Events.Publish(events.TypeSay, map[string]any{
		"target":  req.Target,
		"channel": ircmsg.IsChannel(req.Target),
		"bytes":   len(req.Text),
	})
	s.logger.Info("Sent message via API", "target", req.Target)
	respondJSON(w, http.StatusOK, SayResponse{Status: "sent", Target: req.Target})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc())
}

func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxListLimit {
		return 0, errors.New("limit must be between 1 and " + strconv.Itoa(maxListLimit))
	}
	return n, nil
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
