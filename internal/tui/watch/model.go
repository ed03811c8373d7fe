package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/ircbotd/internal/events"
)

const maxEventLog = 50

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	health    HealthState
	activity  *Activity
	reminders table.Model
	eventLog  []events.Event
	lastID    int64

	heartbeat spinner.Model
	rate      *RateMeter
	theme     Theme

	hubEvents chan events.Event

	lastError string
}

// New creates a new watch TUI model.
func New(apiURL, apiKey string) *Model {
	theme := NewDefaultTheme()
	return &Model{
		apiURL:    apiURL,
		apiKey:    apiKey,
		activity:  NewActivity(),
		reminders: newReminderTable(),
		hubEvents: make(chan events.Event, 100),
		heartbeat: newHeartbeat(theme),
		rate:      &RateMeter{},
		theme:     theme,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, 0, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL) },
		fetchReminders(m.apiURL, m.apiKey),
		tick(),
		m.heartbeat.Tick,
		tea.EnterAltScreen,
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, fetchReminders(m.apiURL, m.apiKey)
		}
		var cmd tea.Cmd
		m.reminders, cmd = m.reminders.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reminders.SetWidth(m.width - 8)

	case tickMsg:
		// Redraws the clock and lets the rate meter decay.
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.heartbeat, cmd = m.heartbeat.Update(msg)
		return m, cmd

	case eventMsg:
		cmd := m.applyEvent(events.Event(msg))
		return m, tea.Batch(cmd, receiveNextEvent(m.hubEvents))

	case healthMsg:
		m.health.Status = msg.Status
		m.health.State = msg.State
		m.health.Nick = msg.Nick
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.PendingTimers = msg.PendingTimers
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg { return fetchHealth(m.apiURL) })

	case remindersMsg:
		m.reminders.SetRows(reminderRows(msg, time.Now()))

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "Event stream disconnected, reconnecting..."
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.apiKey, m.lastID, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg { return fetchHealth(m.apiURL) })
	}

	return m, nil
}

// applyEvent records e and returns a follow-up command, if any.
func (m *Model) applyEvent(e events.Event) tea.Cmd {
	if e.ID > m.lastID {
		m.lastID = e.ID
	}
	m.eventLog = append([]events.Event{e}, m.eventLog...)
	if len(m.eventLog) > maxEventLog {
		m.eventLog = m.eventLog[:maxEventLog]
	}
	m.rate.Observe(time.Now())
	m.activity.Apply(e)
	m.health.Connected = true
	m.lastError = ""

	switch e.Type {
	case events.TypeReminderScheduled, events.TypeReminderFired:
		return fetchReminders(m.apiURL, m.apiKey)
	case events.TypeLoopState:
		return func() tea.Msg { return fetchHealth(m.apiURL) }
	}
	return nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to ircbotd..."
	}

	header := renderHeader(m.health, m.heartbeat.View(), m.rate, m.theme, m.width)
	chatHeight := max(3, m.height-30)
	activity := renderActivity(m.activity, m.theme, m.width, chatHeight)
	reminders := renderReminders(m.reminders, m.theme, m.width)
	eventStream := renderEventStream(m.eventLog, m.theme, m.width)

	parts := []string{header, activity, reminders, eventStream}
	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError)))
	}
	parts = append(parts, m.theme.Dim.Render(" [q] Quit • [r] Refresh reminders • [↑/↓] Scroll reminders"))

	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
