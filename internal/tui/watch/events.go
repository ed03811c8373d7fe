package watch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/ircbotd/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 8 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left, theme.Title.Render("EVENT STREAM"), eventsText)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Local().Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch e.Type {
	case events.TypeProtocolViolation, events.TypeErrorReply:
		typeStyle = theme.StatusFailed
	case events.TypeReminderFired, events.TypeLeet:
		typeStyle = theme.StatusOK
	case events.TypeCommand, events.TypeReminderScheduled, events.TypeSay, events.TypeWebhook:
		typeStyle = theme.Highlight
	case events.TypeLoopState:
		typeStyle = theme.StatusWarn
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-22s", e.Type))
	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

// descKeys are the payload fields worth showing, in display order.
var descKeys = []string{"state", "reason", "name", "command", "nick", "channel", "target", "path", "lines", "winner", "text", "error"}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return truncate(string(e.Data), 60)
	}

	var parts []string
	for _, k := range descKeys {
		switch v := data[k].(type) {
		case string:
			if v != "" {
				parts = append(parts, k+"="+truncate(v, 40))
			}
		case float64:
			parts = append(parts, fmt.Sprintf("%s=%g", k, v))
		}
	}
	if len(parts) == 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return truncate(strings.Join(keys, ","), 60)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
