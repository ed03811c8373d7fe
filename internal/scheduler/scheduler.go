// Package scheduler keeps deferred callbacks in deadline order behind a single
// timer. All methods must be called from one goroutine (the event loop).
package scheduler

import (
	"log/slog"
	"time"
)

type entry struct {
	when  time.Time
	label string
	fire  func()
	next  *entry
}

// Pending describes a scheduled callback that has not fired yet.
type Pending struct {
	When  time.Time `json:"when"`
	Label string    `json:"label"`
}

// Scheduler is a time-ordered list of callbacks. The alarm is armed for the
// head entry only, so at most one timer is outstanding.
type Scheduler struct {
	alarm  Alarm
	logger *slog.Logger
	head   *entry
	n      int
	closed bool

	// onChange, if set, is told the new length after every mutation.
	onChange func(int)
}

// New creates a Scheduler that drives the given alarm.
func New(alarm Alarm, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		alarm:  alarm,
		logger: logger.With("component", "scheduler"),
	}
}

// OnChange registers fn to observe the number of pending entries.
func (s *Scheduler) OnChange(fn func(int)) {
	s.onChange = fn
}

// C delivers a value when the head entry is due.
func (s *Scheduler) C() <-chan time.Time {
	return s.alarm.C()
}

// Schedule registers fn to run at when. Entries with equal deadlines fire in
// the order they were scheduled.
func (s *Scheduler) Schedule(when time.Time, label string, fn func()) {
	if s.closed {
		s.logger.Warn("Ignoring schedule after shutdown", "label", label, "when", when)
		return
	}

	e := &entry{when: when, label: label, fire: fn}
	if s.head == nil || when.Before(s.head.when) {
		e.next = s.head
		s.head = e
		s.alarm.Arm(when)
	} else {
		cur := s.head
		for cur.next != nil && !when.Before(cur.next.when) {
			cur = cur.next
		}
		e.next = cur.next
		cur.next = e
	}
	s.n++
	s.logger.Debug("Scheduled callback", "label", label, "when", when, "pending", s.n)
	s.changed()
}

// FireDue removes and runs the head entry. The alarm is re-armed for the
// following entry before the callback runs, so callbacks may schedule more
// work. It does nothing when the list is empty.
func (s *Scheduler) FireDue() {
	e := s.head
	if e == nil {
		return
	}
	s.head = e.next
	s.n--
	if s.head != nil {
		s.alarm.Arm(s.head.when)
	}
	s.changed()

	s.logger.Debug("Firing callback", "label", e.label, "late_by", time.Since(e.when))
	e.fire()
}

// Shutdown drops every pending entry without running it.
func (s *Scheduler) Shutdown() {
	if s.n > 0 {
		s.logger.Info("Dropping pending callbacks", "count", s.n)
	}
	s.head = nil
	s.n = 0
	s.closed = true
	s.alarm.Stop()
	s.changed()
}

// Len is the number of pending entries.
func (s *Scheduler) Len() int { return s.n }

// Pending lists the pending entries in firing order.
func (s *Scheduler) Pending() []Pending {
	out := make([]Pending, 0, s.n)
	for e := s.head; e != nil; e = e.next {
		out = append(out, Pending{When: e.when, Label: e.label})
	}
	return out
}

// Next returns the deadline of the head entry.
func (s *Scheduler) Next() (time.Time, bool) {
	if s.head == nil {
		return time.Time{}, false
	}
	return s.head.when, true
}

func (s *Scheduler) changed() {
	if s.onChange != nil {
		s.onChange(s.n)
	}
}
