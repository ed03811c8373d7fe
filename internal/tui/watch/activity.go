package watch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/events"
)

const maxChatLines = 200

// Activity accumulates what the event stream says about the channels.
type Activity struct {
	Chat         []string
	Commands     map[string]int
	Violations   int
	ErrorReplies int
	LastLeet     string
}

func NewActivity() *Activity {
	return &Activity{Commands: make(map[string]int)}
}

// Apply folds one event into the activity counters.
func (a *Activity) Apply(e events.Event) {
	switch e.Type {
	case events.TypeChat:
		var entry chatlog.Entry
		if err := json.Unmarshal(e.Data, &entry); err != nil {
			return
		}
		line := e.At.Local().Format("15:04") + "  " + chatlog.Format(entry)
		a.Chat = append(a.Chat, line)
		if len(a.Chat) > maxChatLines {
			a.Chat = a.Chat[len(a.Chat)-maxChatLines:]
		}
	case events.TypeCommand:
		var data struct {
			Command string `json:"command"`
		}
		if json.Unmarshal(e.Data, &data) == nil && data.Command != "" {
			a.Commands[data.Command]++
		}
	case events.TypeProtocolViolation:
		a.Violations++
	case events.TypeErrorReply:
		a.ErrorReplies++
	case events.TypeLeet:
		var data struct {
			Winner string `json:"winner"`
		}
		if json.Unmarshal(e.Data, &data) == nil {
			a.LastLeet = data.Winner
			if a.LastLeet == "" {
				a.LastLeet = "nobody"
			}
		}
	}
}

// commandSummary renders "echo:3 help:1", busiest first.
func (a *Activity) commandSummary() string {
	if len(a.Commands) == 0 {
		return "none"
	}
	names := make([]string, 0, len(a.Commands))
	for name := range a.Commands {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if a.Commands[names[i]] != a.Commands[names[j]] {
			return a.Commands[names[i]] > a.Commands[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, a.Commands[name])
	}
	return strings.Join(parts, " ")
}

func renderActivity(a *Activity, theme Theme, width, height int) string {
	innerWidth := width - 4

	stats := fmt.Sprintf(" commands: %s   violations: %s   error replies: %d",
		a.commandSummary(),
		violationStyle(a.Violations, theme).Render(fmt.Sprint(a.Violations)),
		a.ErrorReplies,
	)
	if a.LastLeet != "" {
		stats += "   1337: " + theme.Nick.Render(a.LastLeet)
	}

	chat := theme.Dim.Render("  No channel activity yet...")
	if len(a.Chat) > 0 {
		start := max(0, len(a.Chat)-max(1, height))
		chat = lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(a.Chat[start:], "\n"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, theme.Title.Render("CHANNELS"), stats, chat)
	return theme.Border.Width(innerWidth).Render(content)
}

func violationStyle(n int, theme Theme) lipgloss.Style {
	if n > 0 {
		return theme.StatusFailed
	}
	return theme.StatusOK
}
