// Package session owns the single server connection: dialing, the
// registration handshake and the serialized send path.
package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mattjoyce/ircbotd/internal/ircmsg"
)

// MaxLine is the longest line body we send; CRLF brings it to 512 bytes.
const MaxLine = 510

var (
	ErrBadLine = errors.New("session: line contains CR, LF or NUL")
	ErrClosed  = errors.New("session: closed")
)

// Config is what a session needs to reach and register with a server.
type Config struct {
	Server      string
	Port        int
	TLS         bool
	TLSInsecure bool
	Password    string
	Nick        string
	Username    string
	Realname    string
	DialTimeout time.Duration
	// Trace logs every line sent at debug level.
	Trace bool
}

// Addr is the host:port the session dials.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// Session is the connection context shared by the event loop, command
// handlers and the API. Send may be called from any goroutine; Read is
// reserved for the loop's receiver.
type Session struct {
	ID     string
	cfg    Config
	conn   net.Conn
	logger *slog.Logger

	wmu sync.Mutex

	nmu  sync.RWMutex
	nick string

	sent        atomic.Uint64
	sentCounter Counter

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// Dial connects to the configured server, over TLS when requested.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Session, error) {
	d := &net.Dialer{Timeout: cfg.DialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if cfg.TLS {
		td := &tls.Dialer{
			NetDialer: d,
			Config: &tls.Config{
				ServerName:         cfg.Server,
				InsecureSkipVerify: cfg.TLSInsecure, //nolint:gosec // opt-in for self-signed test networks
				MinVersion:         tls.VersionTLS12,
			},
		}
		conn, err = td.DialContext(ctx, "tcp", cfg.Addr())
	} else {
		conn, err = d.DialContext(ctx, "tcp", cfg.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr(), err)
	}
	return New(conn, cfg, logger), nil
}

// New wraps an established connection.
func New(conn net.Conn, cfg Config, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:     id,
		cfg:    cfg,
		conn:   conn,
		nick:   cfg.Nick,
		logger: logger.With("component", "session", "session_id", id),
	}
}

// CountSentWith makes every successful Send increment c.
func (s *Session) CountSentWith(c Counter) {
	s.sentCounter = c
}

// Register performs the client side of connection registration.
func (s *Session) Register() error {
	if s.cfg.Password != "" {
		if err := s.Sendf("PASS %s", s.cfg.Password); err != nil {
			return fmt.Errorf("failed to send PASS: %w", err)
		}
	}
	if err := s.Sendf("NICK %s", s.Nick()); err != nil {
		return fmt.Errorf("failed to send NICK: %w", err)
	}
	user := s.cfg.Username
	if user == "" {
		user = s.Nick()
	}
	real := s.cfg.Realname
	if real == "" {
		real = user
	}
	if err := s.Sendf("USER %s 0 * :%s", user, real); err != nil {
		return fmt.Errorf("failed to send USER: %w", err)
	}
	s.logger.Info("Registration sent", "server", s.cfg.Addr(), "nick", s.Nick())
	return nil
}

// Send writes one line followed by CRLF. Lines longer than MaxLine are cut
// short. The whole line is written before any other Send may proceed.
func (s *Session) Send(line string) error {
	if strings.ContainsAny(line, "\r\n\x00") {
		return fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	if s.closed.Load() {
		return ErrClosed
	}
	line = truncate(line, MaxLine)

	s.wmu.Lock()
	_, err := s.conn.Write([]byte(line + "\r\n"))
	s.wmu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}

	s.sent.Add(1)
	if s.sentCounter != nil {
		s.sentCounter.Inc()
	}
	if s.cfg.Trace {
		s.logger.Debug("Sent line", "line", line)
	}
	return nil
}

// Sendf formats and sends one line.
func (s *Session) Sendf(format string, args ...any) error {
	return s.Send(fmt.Sprintf(format, args...))
}

// Say sends a PRIVMSG to target.
func (s *Session) Say(target, text string) error {
	return s.Sendf("PRIVMSG %s :%s", target, text)
}

// Join joins a channel.
func (s *Session) Join(channel string) error {
	return s.Sendf("JOIN %s", channel)
}

// Quit asks the server to close the connection.
func (s *Session) Quit(message string) error {
	return s.Sendf("QUIT :%s", message)
}

// Nick is our current nickname.
func (s *Session) Nick() string {
	s.nmu.RLock()
	defer s.nmu.RUnlock()
	return s.nick
}

// SetNick records a nickname change confirmed by the server.
func (s *Session) SetNick(nick string) {
	s.nmu.Lock()
	s.nick = nick
	s.nmu.Unlock()
}

// IsMe reports whether nick is ours. Nicknames compare case-insensitively.
func (s *Session) IsMe(nick string) bool {
	return strings.EqualFold(nick, s.Nick())
}

// ReplyTarget is where an answer to a PRIVMSG sent by sender to target goes:
// back to the sender for private messages, to the channel otherwise.
func (s *Session) ReplyTarget(sender *ircmsg.Sender, target string) string {
	if sender != nil && s.IsMe(target) {
		return sender.Nick
	}
	return target
}

// Sent is the number of lines written.
func (s *Session) Sent() uint64 { return s.sent.Load() }

// Read reads raw bytes from the server.
func (s *Session) Read(p []byte) (int, error) {
	return s.conn.Read(p)
}

// Close closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.conn.Close()
		s.logger.Info("Connection closed")
	})
	return s.closeErr
}

// truncate cuts line to at most n bytes without splitting a UTF-8 sequence.
func truncate(line string, n int) string {
	if len(line) <= n {
		return line
	}
	for n > 0 && !utf8.RuneStart(line[n]) {
		n--
	}
	return line[:n]
}
