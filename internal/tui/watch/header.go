package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HealthState tracks bot health from /healthz polling.
type HealthState struct {
	Status        string
	State         string
	Nick          string
	UptimeSeconds int64
	PendingTimers int
	Connected     bool
	LastCheck     time.Time
}

func renderHeader(health HealthState, heartbeat string, rate *RateMeter, theme Theme, width int) string {
	innerWidth := width - 4
	now := time.Now()

	statusText := theme.StatusOK.Render(strings.ToUpper(health.State))
	switch {
	case !health.Connected:
		statusText = theme.StatusFailed.Render("DISCONNECTED")
	case health.Status != "ok":
		statusText = theme.StatusWarn.Render(strings.ToUpper(health.State))
	}

	lastEventStr := "never"
	if !rate.Last().IsZero() {
		ago := now.Sub(rate.Last()).Round(time.Second)
		lastEventStr = fmt.Sprintf("%s ago", ago)
	}

	clock := theme.Dim.Render(now.Format("15:04:05"))
	titleText := fmt.Sprintf(" IRCBOTD WATCH %s", heartbeat)

	pad := max(1, innerWidth-lipgloss.Width(titleText)-lipgloss.Width(clock)-4)
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	nick := health.Nick
	if nick == "" {
		nick = "?"
	}
	statsLine := fmt.Sprintf(" %s  as %s  up %s  timers: %d",
		statusText,
		theme.Nick.Render(nick),
		formatDuration(time.Duration(health.UptimeSeconds)*time.Second),
		health.PendingTimers,
	)

	activityLine := fmt.Sprintf(" Last event: %s %s %d/10s", lastEventStr, rate.Render(theme, now), rate.Count(now))

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, statsLine, activityLine)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
}
