// Package leet runs the daily 1337 game: for one minute a day the first user
// to say "1337" in the channel is praised.
package leet

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattjoyce/ircbotd/internal/events"
)

const (
	ReplyWinner = "%s is the 1337est!!!"
	ReplyNobody = "No one was 1337 today. :("
)

// Sayer sends a PRIVMSG.
type Sayer interface {
	Say(target, text string) error
}

// Scheduler defers a callback to the event loop.
type Scheduler interface {
	Schedule(when time.Time, label string, fn func())
}

// Result is published on the events hub when a window closes or is won.
type Result struct {
	Channel string `json:"channel"`
	Winner  string `json:"winner,omitempty"`
}

// Monitor tracks the daily window. It must be used from the event loop.
type Monitor struct {
	channel string
	hour    int
	minute  int

	sched  Scheduler
	out    Sayer
	events *events.Hub
	logger *slog.Logger

	// open is true between HH:MM and HH:MM+1 until someone wins.
	open bool

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func New(channel string, hour, minute int, sched Scheduler, out Sayer, hub *events.Hub, logger *slog.Logger) *Monitor {
	return &Monitor{
		channel: channel,
		hour:    hour,
		minute:  minute,
		sched:   sched,
		out:     out,
		events:  hub,
		logger:  logger.With("component", "leet", "channel", channel),
		Now:     time.Now,
	}
}

// Start schedules the next window.
func (m *Monitor) Start() {
	m.scheduleNext()
}

// Open reports whether the current window is still waiting for a winner.
func (m *Monitor) Open() bool { return m.open }

// Privmsg inspects a channel message for the magic number.
func (m *Monitor) Privmsg(nick, to, text string) {
	if !m.open || !strings.EqualFold(to, m.channel) || !strings.Contains(text, "1337") {
		return
	}
	m.open = false
	m.say(fmt.Sprintf(ReplyWinner, nick))
	m.publish(Result{Channel: m.channel, Winner: nick})
}

// nextWindow returns the start of the next window strictly after now's
// minute, in now's location.
func (m *Monitor) nextWindow(now time.Time) time.Time {
	day := now.Day()
	if now.Hour() > m.hour || (now.Hour() == m.hour && now.Minute() >= m.minute) {
		day++
	}
	return time.Date(now.Year(), now.Month(), day, m.hour, m.minute, 0, 0, now.Location())
}

func (m *Monitor) scheduleNext() {
	start := m.nextWindow(m.Now())
	end := time.Date(start.Year(), start.Month(), start.Day(), m.hour, m.minute+1, 0, 0, start.Location())

	m.sched.Schedule(start, "leet:open", m.openWindow)
	m.sched.Schedule(end, "leet:close", m.closeWindow)
	m.logger.Debug("Scheduled leet window", "at", start)
}

func (m *Monitor) openWindow() {
	m.open = true
}

func (m *Monitor) closeWindow() {
	if m.open {
		m.open = false
		m.say(ReplyNobody)
		m.publish(Result{Channel: m.channel})
	}
	m.scheduleNext()
}

func (m *Monitor) say(text string) {
	if err := m.out.Say(m.channel, text); err != nil {
		m.logger.Warn("Failed to send leet message", "error", err)
	}
}

func (m *Monitor) publish(r Result) {
	if m.events != nil {
		m.events.Publish(events.TypeLeet, r)
	}
}
