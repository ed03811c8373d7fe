package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/ircmsg"
	"github.com/mattjoyce/ircbotd/internal/leet"
	"github.com/mattjoyce/ircbotd/internal/log"
	"github.com/mattjoyce/ircbotd/internal/metrics"
)

// chatLogTimeout bounds each chat log write made from the event loop.
const chatLogTimeout = 5 * time.Second

// Session is the part of *session.Session the dispatcher uses.
type Session interface {
	Send(line string) error
	Say(target, text string) error
	Join(channel string) error
	SetNick(nick string)
	IsMe(nick string) bool
	ReplyTarget(sender *ircmsg.Sender, target string) string
}

// Reminder handles !remind; *remind.Service implements it.
type Reminder interface {
	Handle(nick, arg, replyTo string)
}

// ParamCountError reports a known command with too few or too many
// parameters.
type ParamCountError struct {
	Command string
	Got     int
	Min     int
	Max     int
}

func (e *ParamCountError) Error() string {
	if e.Max == math.MaxInt {
		return fmt.Sprintf("%s with %d parameters (expected at least %d)", e.Command, e.Got, e.Min)
	}
	return fmt.Sprintf("%s with %d parameters (expected between %d and %d)", e.Command, e.Got, e.Min, e.Max)
}

func (e *ParamCountError) Unwrap() error { return ircmsg.ErrInvalidMessage }

type handler struct {
	fn  func(d *Dispatcher, msg *ircmsg.Message)
	min int
	max int
}

var handlers = map[string]handler{
	"001":     {(*Dispatcher).welcome, 0, math.MaxInt},
	"ERROR":   {(*Dispatcher).serverError, 1, 1},
	"JOIN":    {(*Dispatcher).join, 1, 1},
	"KICK":    {(*Dispatcher).kick, 2, 3},
	"NICK":    {(*Dispatcher).nick, 1, 1},
	"PART":    {(*Dispatcher).part, 1, 2},
	"PING":    {(*Dispatcher).ping, 1, 1},
	"PRIVMSG": {(*Dispatcher).privmsg, 2, 2},
	"QUIT":    {(*Dispatcher).quit, 0, 1},
}

// Options wires the dispatcher to the bot's features. Nil features are
// skipped.
type Options struct {
	Channels    []string
	CommandChar string
	ChatLog     *chatlog.Logger
	Leet        *leet.Monitor
	Remind      Reminder
	Metrics     *metrics.Metrics
	Events      *events.Hub
}

// Dispatcher implements loop.Handler.
type Dispatcher struct {
	sess     Session
	opts     Options
	commands []command
	logger   *slog.Logger
}

func New(sess Session, opts Options) *Dispatcher {
	if opts.CommandChar == "" {
		opts.CommandChar = "!"
	}
	d := &Dispatcher{
		sess:   sess,
		opts:   opts,
		logger: log.WithComponent("dispatch"),
	}
	d.commands = builtinCommands(opts.CommandChar)
	return d
}

// Handle routes one message. Unknown commands are ignored.
func (d *Dispatcher) Handle(msg *ircmsg.Message) error {
	if msg.IsErrorReply() {
		code, _ := msg.Numeric()
		name := ircmsg.NumericName(code)
		d.logger.Warn("Received error reply", "code", code, "name", name, "params", msg.Params)
		d.publish(events.TypeErrorReply, map[string]any{"code": code, "name": name, "params": msg.Params})
		return nil
	}

	h, ok := handlers[msg.Command]
	if !ok {
		return nil
	}
	if n := len(msg.Params); n < h.min || n > h.max {
		return &ParamCountError{Command: msg.Command, Got: n, Min: h.min, Max: h.max}
	}
	h.fn(d, msg)
	return nil
}

func (d *Dispatcher) welcome(_ *ircmsg.Message) {
	for _, ch := range d.opts.Channels {
		if err := d.sess.Join(ch); err != nil {
			d.logger.Warn("Failed to join channel", "channel", ch, "error", err)
			continue
		}
		d.logger.Info("Joining channel", "channel", ch)
	}
}

func (d *Dispatcher) serverError(msg *ircmsg.Message) {
	d.logger.Warn("Received ERROR message", "message", msg.Param(0))
}

func (d *Dispatcher) ping(msg *ircmsg.Message) {
	if err := d.sess.Send("PONG :" + msg.Param(0)); err != nil {
		d.logger.Warn("Failed to answer PING", "error", err)
	}
}

func (d *Dispatcher) join(msg *ircmsg.Message) {
	if nick, ok := senderNick(msg); ok {
		d.record(chatlog.Entry{Kind: chatlog.KindJoin, Channel: msg.Param(0), Nick: nick})
	}
}

func (d *Dispatcher) part(msg *ircmsg.Message) {
	if nick, ok := senderNick(msg); ok {
		d.record(chatlog.Entry{Kind: chatlog.KindPart, Channel: msg.Param(0), Nick: nick})
	}
}

func (d *Dispatcher) kick(msg *ircmsg.Message) {
	if nick, ok := senderNick(msg); ok {
		d.record(chatlog.Entry{
			Kind:    chatlog.KindKick,
			Channel: msg.Param(0),
			Nick:    nick,
			Target:  msg.Param(1),
			Text:    msg.Param(2),
		})
	}
}

func (d *Dispatcher) nick(msg *ircmsg.Message) {
	nick, ok := senderNick(msg)
	if !ok {
		return
	}
	if d.sess.IsMe(nick) {
		d.sess.SetNick(msg.Param(0))
		d.logger.Info("Nick changed", "from", nick, "to", msg.Param(0))
	}
	d.record(chatlog.Entry{Kind: chatlog.KindNick, Nick: nick, Target: msg.Param(0)})
}

func (d *Dispatcher) quit(msg *ircmsg.Message) {
	if nick, ok := senderNick(msg); ok {
		d.record(chatlog.Entry{Kind: chatlog.KindQuit, Nick: nick, Text: msg.Param(0)})
	}
}

func (d *Dispatcher) privmsg(msg *ircmsg.Message) {
	nick, ok := senderNick(msg)
	if !ok {
		return
	}
	to, text := msg.Param(0), msg.Param(1)
	d.record(chatlog.Entry{Kind: chatlog.KindPrivmsg, Channel: to, Nick: nick, Text: text})

	if d.opts.Leet != nil {
		d.opts.Leet.Privmsg(nick, to, text)
	}
	if line, ok := strings.CutPrefix(text, d.opts.CommandChar); ok {
		d.runCommand(nick, to, d.sess.ReplyTarget(msg.Sender, to), line)
	}
}

func (d *Dispatcher) record(e chatlog.Entry) {
	d.publish(events.TypeChat, e)
	if !d.opts.ChatLog.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), chatLogTimeout)
	defer cancel()
	if err := d.opts.ChatLog.Append(ctx, e); err != nil {
		d.logger.Warn("Failed to append chat log entry", "error", err)
	}
}

func (d *Dispatcher) publish(eventType string, data any) {
	if d.opts.Events != nil {
		d.opts.Events.Publish(eventType, data)
	}
}

// senderNick extracts the nick from a nick!user@host prefix. Server prefixes
// carry neither user nor host and yield false.
func senderNick(msg *ircmsg.Message) (string, bool) {
	s := msg.Sender
	if s == nil || s.Nick == "" || (s.User == "" && s.Host == "") {
		return "", false
	}
	return s.Nick, true
}
