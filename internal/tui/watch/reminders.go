package watch

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/ircbotd/internal/remind"
)

func newReminderTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Due", Width: 16},
			{Title: "Target", Width: 14},
			{Title: "By", Width: 12},
			{Title: "Text", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(6),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func reminderRows(list []*remind.Reminder, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, r := range list {
		st := "⏳"
		switch {
		case r.FiredAt != nil:
			st = "✓"
		case r.When.Before(now):
			st = "✗"
		}
		rows = append(rows, table.Row{
			st,
			r.When.Local().Format("2006-01-02 15:04"),
			r.Target,
			r.CreatedBy,
			r.Text,
		})
	}
	return rows
}

func renderReminders(t table.Model, theme Theme, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Left, theme.Title.Render("REMINDERS"), t.View())
	return theme.Border.Width(width - 4).Render(content)
}
