package scheduler

import (
	"time"
)

//go:generate mockgen -destination=mocks/mock_alarm.go -package=mocks github.com/mattjoyce/ircbotd/internal/scheduler Alarm

// Alarm is a single re-armable one-shot timer. Arming replaces any previous
// deadline; an instant in the past fires at the next opportunity.
type Alarm interface {
	Arm(at time.Time)
	C() <-chan time.Time
	Stop()
}

// timerAlarm is an Alarm backed by one time.Timer.
type timerAlarm struct {
	timer *time.Timer
}

// NewTimerAlarm returns a disarmed Alarm.
func NewTimerAlarm() Alarm {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &timerAlarm{timer: t}
}

func (a *timerAlarm) Arm(at time.Time) {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	a.timer.Reset(d)
}

func (a *timerAlarm) C() <-chan time.Time { return a.timer.C }

func (a *timerAlarm) Stop() { a.timer.Stop() }
