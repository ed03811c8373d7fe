// Package chatlog records channel activity (joins, parts, kicks, nick
// changes, quits and messages) in the state database.
package chatlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/ircbotd/internal/storage"
)

// Kind is the type of activity an Entry records.
type Kind string

const (
	KindJoin    Kind = "join"
	KindPart    Kind = "part"
	KindKick    Kind = "kick"
	KindNick    Kind = "nick"
	KindQuit    Kind = "quit"
	KindPrivmsg Kind = "privmsg"
)

// Entry is one line of activity.
//
// Nick is always the acting user. Target is the kicked user for kicks and the
// new nick for nick changes. Text is the message, kick reason or quit message.
type Entry struct {
	ID      int64     `json:"id"`
	At      time.Time `json:"at"`
	Kind    Kind      `json:"kind"`
	Channel string    `json:"channel,omitempty"`
	Nick    string    `json:"nick"`
	Target  string    `json:"target,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// Logger appends entries to the chat_log table. A disabled Logger drops
// everything.
type Logger struct {
	db      *sql.DB
	enabled bool
	logger  *slog.Logger

	Now func() time.Time
}

func New(db *sql.DB, enabled bool, logger *slog.Logger) *Logger {
	return &Logger{
		db:      db,
		enabled: enabled && db != nil,
		logger:  logger.With("component", "chatlog"),
		Now:     time.Now,
	}
}

// Enabled reports whether Append writes anything.
func (l *Logger) Enabled() bool { return l != nil && l.enabled }

// Append stores e, stamping it with the current time when At is zero.
func (l *Logger) Append(ctx context.Context, e Entry) error {
	if !l.Enabled() {
		return nil
	}
	if e.At.IsZero() {
		e.At = l.Now()
	}
	_, err := l.db.ExecContext(ctx, `
INSERT INTO chat_log(at, kind, channel, nick, target, text)
VALUES(?, ?, ?, ?, ?, ?);
`, storage.FormatTime(e.At), string(e.Kind), e.Channel, e.Nick, e.Target, e.Text)
	if err != nil {
		return fmt.Errorf("append chat log entry: %w", err)
	}
	l.logger.Debug(Format(e))
	return nil
}

// Recent returns up to limit entries, oldest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
SELECT id, at, kind, channel, nick, target, text FROM (
  SELECT * FROM chat_log ORDER BY id DESC LIMIT ?
) ORDER BY id ASC;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			at   string
			kind string
		)
		if err := rows.Scan(&e.ID, &at, &kind, &e.Channel, &e.Nick, &e.Target, &e.Text); err != nil {
			return nil, fmt.Errorf("scan chat log entry: %w", err)
		}
		if e.At, err = storage.ParseTime(at); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat log: %w", err)
	}
	return out, nil
}

// Format renders e the way it reads in a channel log, without the timestamp.
func Format(e Entry) string {
	switch e.Kind {
	case KindJoin:
		return fmt.Sprintf("%s  %s joined", e.Channel, e.Nick)
	case KindPart:
		return fmt.Sprintf("%s  %s left", e.Channel, e.Nick)
	case KindKick:
		if e.Text == "" {
			return fmt.Sprintf("%s  %s was kicked by %s", e.Channel, e.Target, e.Nick)
		}
		return fmt.Sprintf("%s  %s was kicked by %s: %s", e.Channel, e.Target, e.Nick, e.Text)
	case KindNick:
		return fmt.Sprintf("%s changed nick to %s", e.Nick, e.Target)
	case KindQuit:
		if e.Text == "" {
			return e.Nick + " quit"
		}
		return fmt.Sprintf("%s quit: %s", e.Nick, e.Text)
	case KindPrivmsg:
		return fmt.Sprintf("%s  <%s> %s", e.Channel, e.Nick, e.Text)
	}
	return fmt.Sprintf("%s  %s %s", e.Channel, e.Nick, e.Text)
}

// Line is Format prefixed with the local timestamp.
func Line(e Entry) string {
	return e.At.Local().Format(time.ANSIC) + "  " + Format(e)
}
