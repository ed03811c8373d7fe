// Package remind implements the !remind command: parsing the requested time,
// persisting the reminder and delivering it through the scheduler.
package remind

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/metrics"
)

// Replies sent for rejected requests.
const (
	ReplyNoTime       = "Error: No time given."
	ReplyBadDate      = "Error: Malformed or invalid time or date."
	ReplyNoSpace      = "Error: Expected a space and the message after the time."
	ReplyEmptyMessage = "Error: Empty reminder message."
	ReplyInPast       = "Error: That's in the past."
	ReplyFailed       = "Failed to add reminder due to an unexpected error."
)

// storeTimeout bounds each database call made from the event loop.
const storeTimeout = 5 * time.Second

// Sayer sends a PRIVMSG.
type Sayer interface {
	Say(target, text string) error
}

// Scheduler defers a callback; *scheduler.Scheduler implements it.
type Scheduler interface {
	Schedule(when time.Time, label string, fn func())
}

// Service handles !remind requests. It must be used from the event loop.
type Service struct {
	store   *Store
	sched   Scheduler
	out     Sayer
	logger  *slog.Logger
	metrics *metrics.Metrics
	events  *events.Hub

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewService(store *Store, sched Scheduler, out Sayer, logger *slog.Logger, m *metrics.Metrics, hub *events.Hub) *Service {
	return &Service{
		store:   store,
		sched:   sched,
		out:     out,
		logger:  logger.With("component", "remind"),
		metrics: m,
		events:  hub,
		Now:     time.Now,
	}
}

// Handle processes the argument of a !remind command from nick and answers
// on replyTo. An empty arg means no argument was given.
func (s *Service) Handle(nick, arg, replyTo string) {
	reply := s.add(nick, arg, replyTo)
	if err := s.out.Say(replyTo, reply); err != nil {
		s.logger.Warn("Failed to reply", "target", replyTo, "error", err)
	}
}

func (s *Service) add(nick, arg, replyTo string) string {
	if arg == "" {
		return ReplyNoTime
	}

	now := s.Now().Truncate(time.Second)
	when, rest, err := ParseWhen(now, arg)
	if err != nil {
		return ReplyBadDate
	}
	if !strings.HasPrefix(rest, " ") {
		return ReplyNoSpace
	}
	text := rest[1:]
	if text == "" {
		return ReplyEmptyMessage
	}
	if when.Before(now) {
		return ReplyInPast
	}

	r := &Reminder{
		When:      when,
		Target:    replyTo,
		Text:      text,
		CreatedBy: nick,
		CreatedAt: now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	added, err := s.store.Add(ctx, r)
	if err != nil {
		// The reminder still fires if the process stays up.
		s.logger.Warn("Failed to save reminder", "error", err)
		added = true
	}
	if added {
		s.schedule(r)
	} else {
		s.logger.Info("Reminder already scheduled", "id", r.ID)
	}

	return confirmation(when.Sub(now))
}

func (s *Service) schedule(r *Reminder) {
	s.sched.Schedule(r.When, "remind:"+r.ID, func() { s.fire(r) })
	s.metrics.ReminderScheduled()
	if s.events != nil {
		s.events.Publish(events.TypeReminderScheduled, r)
	}
	s.logger.Info("Reminder scheduled", "id", r.ID, "target", r.Target, "when", r.When)
}

func (s *Service) fire(r *Reminder) {
	if err := s.out.Say(r.Target, "REMINDER: "+r.Text); err != nil {
		s.logger.Warn("Failed to deliver reminder", "id", r.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.MarkFired(ctx, r.ID, s.Now()); err != nil {
		s.logger.Warn("Failed to mark reminder fired", "id", r.ID, "error", err)
	}
	if s.events != nil {
		s.events.Publish(events.TypeReminderFired, r)
	}
}

// Restore schedules every stored reminder that is still in the future.
func (s *Service) Restore(ctx context.Context) (int, error) {
	pending, err := s.store.Pending(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("restore reminders: %w", err)
	}
	for _, r := range pending {
		s.schedule(r)
	}
	if len(pending) > 0 {
		s.logger.Info("Restored reminders", "count", len(pending))
	}
	return len(pending), nil
}

// confirmation renders the approximate delay, e.g. "I will remind you in
// approx. 1 day, 2 hours, 5 seconds!". Zero days, hours and minutes are left
// out; seconds are always shown.
func confirmation(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := total / 3600 % 24
	minutes := total / 60 % 60
	seconds := total % 60

	var b strings.Builder
	b.WriteString("I will remind you in approx. ")
	for _, part := range []struct {
		n    int64
		unit string
	}{{days, "day"}, {hours, "hour"}, {minutes, "minute"}} {
		if part.n != 0 {
			fmt.Fprintf(&b, "%d %s, ", part.n, plural(part.n, part.unit))
		}
	}
	fmt.Fprintf(&b, "%d %s!", seconds, plural(seconds, "second"))
	return b.String()
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
