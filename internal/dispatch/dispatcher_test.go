package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/ircmsg"
	"github.com/mattjoyce/ircbotd/internal/leet"
	"github.com/mattjoyce/ircbotd/internal/storage"
)

type fakeSession struct {
	nick  string
	lines []string
	err   error
}

func (f *fakeSession) Send(line string) error {
	if f.err != nil {
		return f.err
	}
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeSession) Say(target, text string) error {
	return f.Send(fmt.Sprintf("PRIVMSG %s :%s", target, text))
}

func (f *fakeSession) Join(channel string) error { return f.Send("JOIN " + channel) }

func (f *fakeSession) SetNick(nick string) { f.nick = nick }

func (f *fakeSession) IsMe(nick string) bool { return strings.EqualFold(nick, f.nick) }

func (f *fakeSession) ReplyTarget(sender *ircmsg.Sender, target string) string {
	if sender != nil && f.IsMe(target) {
		return sender.Nick
	}
	return target
}

type remindCall struct{ nick, arg, replyTo string }

type fakeReminder struct{ calls []remindCall }

func (f *fakeReminder) Handle(nick, arg, replyTo string) {
	f.calls = append(f.calls, remindCall{nick, arg, replyTo})
}

func handle(t *testing.T, d *Dispatcher, line string) error {
	t.Helper()
	msg, err := ircmsg.ParseString(line)
	require.NoError(t, err, line)
	return d.Handle(msg)
}

func newDispatcher(opts Options) (*Dispatcher, *fakeSession) {
	sess := &fakeSession{nick: "botniklas"}
	return New(sess, opts), sess
}

func TestWelcomeJoinsChannels(t *testing.T) {
	d, sess := newDispatcher(Options{Channels: []string{"#a", "#b"}})
	require.NoError(t, handle(t, d, ":srv 001 botniklas :Welcome"))
	assert.Equal(t, []string{"JOIN #a", "JOIN #b"}, sess.lines)
}

func TestPingPong(t *testing.T) {
	d, sess := newDispatcher(Options{})
	require.NoError(t, handle(t, d, "PING :server123"))
	assert.Equal(t, []string{"PONG :server123"}, sess.lines)
}

func TestSendFailureIsNotAViolation(t *testing.T) {
	d, sess := newDispatcher(Options{})
	sess.err = errors.New("closed")
	assert.NoError(t, handle(t, d, "PING :x"))
}

func TestParamBounds(t *testing.T) {
	d, sess := newDispatcher(Options{})
	tests := []struct {
		line string
		ok   bool
	}{
		{"PING", false},
		{"PING a b", false},
		{"ERROR", false},
		{"ERROR :Closing link", true},
		{":a!b@c JOIN", false},
		{":a!b@c JOIN #c key", false},
		{":a!b@c KICK #c", false},
		{":a!b@c KICK #c bob", true},
		{":a!b@c KICK #c bob :bye", true},
		{":a!b@c KICK #c bob x y", false},
		{":a!b@c PART #c", true},
		{":a!b@c PART #c :bye", true},
		{":a!b@c PART #c x y", false},
		{":a!b@c PRIVMSG #c", false},
		{":a!b@c PRIVMSG #c x y", false},
		{":a!b@c QUIT", true},
		{":a!b@c QUIT :bye", true},
		{":a!b@c QUIT x y", false},
		{":a!b@c NICK", false},
		{"FOO a b c", true},
	}
	for _, tt := range tests {
		err := handle(t, d, tt.line)
		if tt.ok {
			assert.NoError(t, err, tt.line)
			continue
		}
		var pce *ParamCountError
		require.ErrorAs(t, err, &pce, tt.line)
		assert.ErrorIs(t, err, ircmsg.ErrInvalidMessage)
	}
	assert.Empty(t, sess.lines)
}

func TestParamCountErrorMessage(t *testing.T) {
	d, _ := newDispatcher(Options{})
	err := handle(t, d, ":a!b@c KICK #c")
	assert.EqualError(t, err, "KICK with 1 parameters (expected between 2 and 3)")
}

func TestErrorReplyIsPublished(t *testing.T) {
	hub := events.NewHub(4)
	d, _ := newDispatcher(Options{Events: hub})

	// 433 with too many params for any table entry is still just a warning.
	require.NoError(t, handle(t, d, ":srv 433 * botniklas :Nickname is already in use"))
	evs := hub.SnapshotSince(0)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeErrorReply, evs[0].Type)
	assert.Contains(t, string(evs[0].Data), "ERR_NICKNAMEINUSE")
}

func TestOwnNickChangeIsTracked(t *testing.T) {
	d, sess := newDispatcher(Options{})
	require.NoError(t, handle(t, d, ":someone!u@h NICK other"))
	assert.Equal(t, "botniklas", sess.nick)

	require.NoError(t, handle(t, d, ":BotNiklas!u@h NICK botniklas_"))
	assert.Equal(t, "botniklas_", sess.nick)
}

func TestCommands(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{":bob!u@h PRIVMSG #c :!compliment", []string{"PRIVMSG #c :You rock!"}},
		{":bob!u@h PRIVMSG botniklas :!compliment", []string{"PRIVMSG bob :You rock!"}},
		{":bob!u@h PRIVMSG #c :!complimentary", nil},
		{":bob!u@h PRIVMSG #c :!echo hello  world", []string{"PRIVMSG #c :hello  world"}},
		{":bob!u@h PRIVMSG #c :!echo", nil},
		{":bob!u@h PRIVMSG #c :!echo ", nil},
		{":bob!u@h PRIVMSG #c :!commands", []string{"PRIVMSG #c :Available commands: !commands !compliment !echo !help !remind"}},
		{":bob!u@h PRIVMSG #c :!help", []string{"PRIVMSG #c :Usage: !help <command>. Use !commands to list commands."}},
		{":bob!u@h PRIVMSG #c :!help echo", []string{"PRIVMSG #c :Usage: !echo <text>"}},
		{":bob!u@h PRIVMSG #c :!help nope", []string{"PRIVMSG #c :'nope': No such command. Use !commands to list commands."}},
		{":bob!u@h PRIVMSG #c :!nope", nil},
		{":bob!u@h PRIVMSG #c :compliment", nil},
		{"PRIVMSG #c :!compliment", nil},
		{":irc.example.net PRIVMSG #c :!compliment", nil},
	}
	for _, tt := range tests {
		d, sess := newDispatcher(Options{})
		require.NoError(t, handle(t, d, tt.line))
		assert.Equal(t, tt.want, sess.lines, tt.line)
	}
}

func TestCustomCommandChar(t *testing.T) {
	d, sess := newDispatcher(Options{CommandChar: "."})
	require.NoError(t, handle(t, d, ":bob!u@h PRIVMSG #c :!compliment"))
	require.NoError(t, handle(t, d, ":bob!u@h PRIVMSG #c :.help echo"))
	assert.Equal(t, []string{"PRIVMSG #c :Usage: .echo <text>"}, sess.lines)
}

func TestRemindIsForwarded(t *testing.T) {
	r := &fakeReminder{}
	hub := events.NewHub(8)
	d, _ := newDispatcher(Options{Remind: r, Events: hub})

	require.NoError(t, handle(t, d, ":bob!u@h PRIVMSG #c :!remind 16:00 tea"))
	require.NoError(t, handle(t, d, ":bob!u@h PRIVMSG botniklas :!remind"))
	assert.Equal(t, []remindCall{
		{"bob", "16:00 tea", "#c"},
		{"bob", "", "bob"},
	}, r.calls)

	var commands int
	for _, ev := range hub.SnapshotSince(0) {
		if ev.Type == events.TypeCommand {
			commands++
		}
	}
	assert.Equal(t, 2, commands)
}

type fakeScheduler struct{ fns []func() }

func (f *fakeScheduler) Schedule(_ time.Time, _ string, fn func()) { f.fns = append(f.fns, fn) }

func TestPrivmsgFeedsLeetMonitor(t *testing.T) {
	sched := &fakeScheduler{}
	sess := &fakeSession{nick: "botniklas"}
	mon := leet.New("#c", 13, 37, sched, sess, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mon.Start()
	sched.fns[0]() // window opens

	d := New(sess, Options{Leet: mon})
	require.NoError(t, handle(t, d, ":bob!u@h PRIVMSG #c :1337"))
	assert.Equal(t, []string{"PRIVMSG #c :bob is the 1337est!!!"}, sess.lines)
}

func TestActivityIsLogged(t *testing.T) {
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cl := chatlog.New(db, true, slog.New(slog.NewTextHandler(io.Discard, nil)))

	d, _ := newDispatcher(Options{ChatLog: cl})
	for _, line := range []string{
		":bob!u@h JOIN #c",
		":bob!u@h PRIVMSG #c :hello there",
		":alice!u@h KICK #c bob :behave",
		":carol!u@h NICK caroline",
		":caroline!u@h PART #c",
		":dave!u@h QUIT",
		":irc.example.net NOTICE * :ignored",
		":irc.example.net JOIN #c",
	} {
		require.NoError(t, handle(t, d, line))
	}

	entries, err := cl.Recent(context.Background(), 0)
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, chatlog.Format(e))
	}
	assert.Equal(t, []string{
		"#c  bob joined",
		"#c  <bob> hello there",
		"#c  bob was kicked by alice: behave",
		"carol changed nick to caroline",
		"#c  caroline left",
		"dave quit",
	}, got)
}
