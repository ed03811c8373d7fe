package api

import (
	"time"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/remind"
)

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string    `json:"status"`
	State         string    `json:"state"`
	Nick          string    `json:"nick"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	PendingTimers int       `json:"pending_timers"`
	StartedAt     time.Time `json:"started_at"`
}

// SayRequest is the JSON body for POST /say.
type SayRequest struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// SayResponse confirms a sent message.
type SayResponse struct {
	Status string `json:"status"`
	Target string `json:"target"`
}

// RemindersResponse is returned by GET /reminders.
type RemindersResponse struct {
	Reminders []*remind.Reminder `json:"reminders"`
}

// ChatLogResponse is returned by GET /chatlog.
type ChatLogResponse struct {
	Entries []chatlog.Entry `json:"entries"`
}
