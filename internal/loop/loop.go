package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/framing"
	"github.com/mattjoyce/ircbotd/internal/ircmsg"
	"github.com/mattjoyce/ircbotd/internal/metrics"
	"github.com/mattjoyce/ircbotd/internal/scheduler"
)

// ErrFatal marks errors that end the process with a failure status.
var ErrFatal = errors.New("fatal")

// Source identifies what woke the loop.
type Source int

const (
	SourceSocket Source = iota
	SourceTimer
	SourceSignal
)

func (s Source) String() string {
	switch s {
	case SourceSocket:
		return "socket"
	case SourceTimer:
		return "timer"
	case SourceSignal:
		return "signal"
	}
	return "unknown"
}

// State is the loop's lifecycle position.
type State int32

const (
	StateConnecting State = iota
	StateRunning
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Handler receives every parsed message, in arrival order, on the loop
// goroutine. A returned error is a protocol violation.
type Handler interface {
	Handle(msg *ircmsg.Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(msg *ircmsg.Message) error

func (f HandlerFunc) Handle(msg *ircmsg.Message) error { return f(msg) }

// Conn is the connection the loop reads from. *session.Session implements it.
type Conn interface {
	io.Reader
	Send(line string) error
	Close() error
}

// Options tune a Loop. Zero values are usable.
type Options struct {
	// BufferSize is the framing capacity; 0 means the page size.
	BufferSize  int
	QuitMessage string
	// Strict turns protocol violations into fatal errors.
	Strict bool
	// Trace logs every received line at debug level.
	Trace bool
	// Signals replaces SIGINT/SIGTERM notification, mainly for tests.
	Signals <-chan os.Signal
	Metrics *metrics.Metrics
	Events  *events.Hub
}

type recvResult struct {
	open bool
	err  error
}

// Loop is the event loop for one connection.
type Loop struct {
	opts    Options
	conn    Conn
	sched   *scheduler.Scheduler
	handler Handler
	logger  *slog.Logger
	buf     *framing.Buffer

	state   atomic.Int32
	pending atomic.Int64

	ready  chan recvResult
	resume chan struct{}
	done   chan struct{}
	recvWG sync.WaitGroup

	quitSent  bool
	lastBytes uint64
}

// New builds a loop around an already registered connection.
func New(opts Options, conn Conn, sched *scheduler.Scheduler, h Handler, logger *slog.Logger) (*Loop, error) {
	if conn == nil || sched == nil || h == nil {
		return nil, fmt.Errorf("%w: loop needs a connection, a scheduler and a handler", ErrFatal)
	}
	size := opts.BufferSize
	if size == 0 {
		size = framing.DefaultCapacity()
	}
	buf, err := framing.New(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	l := &Loop{
		opts:    opts,
		conn:    conn,
		sched:   sched,
		handler: h,
		logger:  logger.With("component", "loop"),
		buf:     buf,
		ready:   make(chan recvResult),
		resume:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	sched.OnChange(func(n int) {
		l.pending.Store(int64(n))
		l.opts.Metrics.SetPending(n)
	})
	l.pending.Store(int64(sched.Len()))
	return l, nil
}

// State is safe to call from any goroutine.
func (l *Loop) State() State { return State(l.state.Load()) }

// PendingTimers is the scheduler length as of its last change.
func (l *Loop) PendingTimers() int { return int(l.pending.Load()) }

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	l.opts.Metrics.SetLoopState(int(s))
	l.publish(events.TypeLoopState, map[string]any{"state": s.String()})
	l.logger.Debug("Loop state changed", "state", s.String())
}

// Run processes wake-ups until the connection is drained. It returns nil on
// an orderly shutdown and an error wrapping ErrFatal otherwise.
func (l *Loop) Run(ctx context.Context) error {
	sigCh, stopSignals := l.signals()

	l.setState(StateRunning)
	l.logger.Info("Event loop started", "buffer_size", l.buf.Capacity(), "strict", l.opts.Strict)

	l.recvWG.Add(1)
	go l.receive()
	l.resume <- struct{}{}

	err := l.run(ctx, sigCh)

	l.setState(StateDraining)
	stopSignals()
	l.drain()
	l.setState(StateClosed)

	if err != nil {
		l.logger.Error("Event loop stopped", "error", err)
		return err
	}
	l.logger.Info("Process shut down cleanly")
	return nil
}

func (l *Loop) run(ctx context.Context, sigCh <-chan os.Signal) error {
	for {
		select {
		case r := <-l.ready:
			closed, err := l.onSocket(r)
			if err != nil || closed {
				return err
			}
			l.resume <- struct{}{}

		case <-l.sched.C():
			l.logger.Debug("Woke up", "source", SourceTimer.String())
			l.opts.Metrics.TimerFired()
			l.sched.FireDue()

		case sig := <-sigCh:
			l.logger.Info("Received signal", "source", SourceSignal.String(), "signal", sig.String())
			if l.quitSent {
				return nil
			}
			l.quitSent = true
			if err := l.conn.Send("QUIT :" + l.opts.QuitMessage); err != nil {
				l.logger.Warn("Failed to send QUIT", "error", err)
				return nil
			}

		case <-ctx.Done():
			l.logger.Info("Context cancelled", "reason", context.Cause(ctx))
			return nil
		}
	}
}

// onSocket consumes a finished receive. closed reports that the connection
// is gone and the loop should drain.
func (l *Loop) onSocket(r recvResult) (closed bool, err error) {
	stats := l.buf.Stats()
	l.opts.Metrics.BytesReceived(stats.BytesReceived - l.lastBytes)
	l.lastBytes = stats.BytesReceived

	if r.err != nil {
		if errors.Is(r.err, framing.ErrBufferFull) {
			return true, fmt.Errorf("%w: %w", ErrFatal, r.err)
		}
		l.logger.Warn("Receive failed", "error", r.err)
		return true, nil
	}

	// Lines already buffered are still delivered when the peer closed.
	if err := l.processLines(); err != nil {
		return true, err
	}
	if !r.open {
		l.logger.Info("Server closed the connection", "quit_sent", l.quitSent)
		return true, nil
	}
	return false, nil
}

func (l *Loop) processLines() error {
	for {
		line, err := l.buf.Next()
		if err != nil {
			if errors.Is(err, framing.ErrEmptyLine) {
				continue
			}
			if verr := l.violation("null_byte", err); verr != nil {
				return verr
			}
			continue
		}
		if line == nil {
			return nil
		}
		if l.opts.Trace {
			l.logger.Debug("Received line", "line", string(line))
		}

		msg, err := ircmsg.Parse(line)
		if err != nil {
			if verr := l.violation("parse", fmt.Errorf("%w: %q", err, line)); verr != nil {
				return verr
			}
			continue
		}
		l.opts.Metrics.MessageReceived()

		if err := l.handler.Handle(msg); err != nil {
			if verr := l.violation("handler", fmt.Errorf("%s: %w", msg.Command, err)); verr != nil {
				return verr
			}
		}
	}
}

// violation records a dropped line and returns a fatal error in strict mode.
func (l *Loop) violation(reason string, err error) error {
	l.opts.Metrics.Violation(reason)
	l.publish(events.TypeProtocolViolation, map[string]any{"reason": reason, "error": err.Error()})
	if l.opts.Strict {
		return fmt.Errorf("%w: protocol violation: %w", ErrFatal, err)
	}
	l.logger.Warn("Ignoring invalid message", "reason", reason, "error", err)
	return nil
}

// receive performs the blocking reads. It only touches the buffer between a
// resume and the matching result.
func (l *Loop) receive() {
	defer l.recvWG.Done()
	for {
		select {
		case <-l.resume:
		case <-l.done:
			return
		}
		open, err := l.buf.Fill(l.conn)
		select {
		case l.ready <- recvResult{open: open, err: err}:
		case <-l.done:
			return
		}
		if !open {
			return
		}
	}
}

func (l *Loop) drain() {
	close(l.done)
	if err := l.conn.Close(); err != nil {
		l.logger.Debug("Close failed", "error", err)
	}
	l.recvWG.Wait()
	l.sched.Shutdown()
	l.buf.Reset()
	l.buf = nil
}

func (l *Loop) signals() (<-chan os.Signal, func()) {
	if l.opts.Signals != nil {
		return l.opts.Signals, func() {}
	}
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	signal.Ignore(syscall.SIGHUP, syscall.SIGPIPE)
	return ch, func() { signal.Stop(ch) }
}

func (l *Loop) publish(eventType string, data any) {
	if l.opts.Events != nil {
		l.opts.Events.Publish(eventType, data)
	}
}
