package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/ircbotd/internal/events"
)

// keepAliveInterval is how often an idle stream gets a comment line.
var keepAliveInterval = 15 * time.Second

// handleEvents streams hub events as server-sent events. A Last-Event-ID
// header (or ?since=) replays buffered events after that id; ?type= (repeat
// or comma-separate) restricts the stream to the named event types.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	lastID := parseLastEventID(r.Header.Get("Last-Event-ID"))
	if since := r.URL.Query().Get("since"); since != "" && lastID == 0 {
		lastID = parseLastEventID(since)
	}
	want := typeFilter(r.URL.Query()["type"])

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Subscribe before the replay so nothing published in between is lost.
	ch, cancel := s.deps.Events.Subscribe()
	defer cancel()

	for _, ev := range s.deps.Events.SnapshotSince(lastID) {
		if !want(ev.Type) {
			continue
		}
		if err := writeSSE(w, ev); err != nil {
			return
		}
		lastID = ev.ID
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.ID <= lastID || !want(ev.Type) {
				continue
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			lastID = ev.ID
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func typeFilter(values []string) func(string) bool {
	set := map[string]bool{}
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				set[t] = true
			}
		}
	}
	if len(set) == 0 {
		return func(string) bool { return true }
	}
	return func(t string) bool { return set[t] }
}

func parseLastEventID(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeSSE(w io.Writer, ev events.Event) error {
	if _, err := fmt.Fprintf(w, "id: %d\n", ev.ID); err != nil {
		return err
	}
	if ev.Type != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
			return err
		}
	}
	// Data is single-line JSON.
	if _, err := fmt.Fprintf(w, "data: %s\n\n", ev.Data); err != nil {
		return err
	}
	return nil
}
