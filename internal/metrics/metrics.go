// Package metrics exposes the daemon's Prometheus collectors. Every method is
// safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ircbotd"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	messagesReceived prometheus.Counter
	messagesSent     prometheus.Counter
	bytesReceived    prometheus.Counter
	violations       *prometheus.CounterVec
	commands         *prometheus.CounterVec
	timersPending    prometheus.Gauge
	timersFired      prometheus.Counter
	loopState        prometheus.Gauge
	remindersSet     prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "irc",
			Name:      "messages_received_total",
			Help:      "Protocol lines parsed and handed to the dispatcher.",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "irc",
			Name:      "messages_sent_total",
			Help:      "Protocol lines written to the server.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "irc",
			Name:      "bytes_received_total",
			Help:      "Raw bytes read from the server.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "irc",
			Name:      "protocol_violations_total",
			Help:      "Lines dropped because they could not be framed, parsed or handled.",
		}, []string{"reason"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Bot commands invoked, by name.",
		}, []string{"command"}),
		timersPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "pending",
			Help:      "Callbacks waiting for their deadline.",
		}),
		timersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "fired_total",
			Help:      "Callbacks that reached their deadline.",
		}),
		loopState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "state",
			Help:      "Event loop state (0 connecting, 1 running, 2 draining, 3 closed).",
		}),
		remindersSet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "reminders_scheduled_total",
			Help:      "Reminders accepted or restored.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messagesReceived,
		m.messagesSent,
		m.bytesReceived,
		m.violations,
		m.commands,
		m.timersPending,
		m.timersFired,
		m.loopState,
		m.remindersSet,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// SentCounter is incremented by the session for every line written.
func (m *Metrics) SentCounter() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.messagesSent
}

func (m *Metrics) MessageReceived() {
	if m != nil {
		m.messagesReceived.Inc()
	}
}

func (m *Metrics) BytesReceived(n uint64) {
	if m != nil && n > 0 {
		m.bytesReceived.Add(float64(n))
	}
}

func (m *Metrics) Violation(reason string) {
	if m != nil {
		m.violations.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Command(name string) {
	if m != nil {
		m.commands.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.timersPending.Set(float64(n))
	}
}

func (m *Metrics) TimerFired() {
	if m != nil {
		m.timersFired.Inc()
	}
}

func (m *Metrics) SetLoopState(s int) {
	if m != nil {
		m.loopState.Set(float64(s))
	}
}

func (m *Metrics) ReminderScheduled() {
	if m != nil {
		m.remindersSet.Inc()
	}
}
