package watch

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

const (
	rateWindow = 10 * time.Second
	rateCells  = 5
)

func newHeartbeat(theme Theme) spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.Spinner{
			Frames: []string{"◐", "◓", "◑", "◒"},
			FPS:    time.Second / 2,
		}),
		spinner.WithStyle(theme.Highlight),
	)
}

// RateMeter counts hub events over the last rateWindow.
type RateMeter struct {
	seen []time.Time
	last time.Time
}

func (r *RateMeter) Observe(at time.Time) {
	r.seen = append(r.seen, at)
	r.last = at
	r.expire(at)
}

func (r *RateMeter) expire(now time.Time) {
	i := 0
	for i < len(r.seen) && now.Sub(r.seen[i]) > rateWindow {
		i++
	}
	r.seen = r.seen[i:]
}

// Count returns the events seen in the window ending at now.
func (r *RateMeter) Count(now time.Time) int {
	r.expire(now)
	return len(r.seen)
}

func (r *RateMeter) Last() time.Time { return r.last }

// Render lights one cell per two events in the window.
func (r *RateMeter) Render(theme Theme, now time.Time) string {
	lit := min(rateCells, (r.Count(now)+1)/2)
	var sb strings.Builder
	for i := range rateCells {
		if i < lit {
			sb.WriteString(theme.RateLit.Render("●"))
		} else {
			sb.WriteString(theme.RateUnlit.Render("○"))
		}
	}
	return sb.String()
}
