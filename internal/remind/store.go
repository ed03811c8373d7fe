package remind

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/blake3"

	"github.com/mattjoyce/ircbotd/internal/storage"
)

// Reminder is one persisted !remind request.
type Reminder struct {
	ID        string     `json:"id"`
	When      time.Time  `json:"when"`
	Target    string     `json:"target"`
	Text      string     `json:"text"`
	CreatedBy string     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	FiredAt   *time.Time `json:"fired_at,omitempty"`
}

// ReminderID derives a stable id, so the same request stored twice is one row.
func ReminderID(when time.Time, target, text string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(strconv.FormatInt(when.Unix(), 10)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(target))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Store persists reminders in the reminders table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add stores r and reports whether it was new.
func (s *Store) Add(ctx context.Context, r *Reminder) (bool, error) {
	if r.ID == "" {
		r.ID = ReminderID(r.When, r.Target, r.Text)
	}
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO reminders(id, due_at, target, text, created_by, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, r.ID, storage.FormatTime(r.When), r.Target, r.Text, r.CreatedBy, storage.FormatTime(r.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("insert reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert reminder: %w", err)
	}
	return n == 1, nil
}

// MarkFired records that the reminder was delivered.
func (s *Store) MarkFired(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE reminders SET fired_at = ? WHERE id = ?;", storage.FormatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark reminder fired: %w", err)
	}
	return nil
}

// Pending returns unfired reminders due at or after now, soonest first.
func (s *Store) Pending(ctx context.Context, now time.Time) ([]*Reminder, error) {
	return s.query(ctx, `
SELECT id, due_at, target, text, created_by, created_at, fired_at
FROM reminders
WHERE fired_at IS NULL AND due_at >= ?
ORDER BY due_at ASC;
`, storage.FormatTime(now))
}

// List returns up to limit reminders, latest due first.
func (s *Store) List(ctx context.Context, limit int) ([]*Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(ctx, `
SELECT id, due_at, target, text, created_by, created_at, fired_at
FROM reminders
ORDER BY due_at DESC
LIMIT ?;
`, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var out []*Reminder
	for rows.Next() {
		var (
			r            Reminder
			due, created string
			fired        sql.NullString
		)
		if err := rows.Scan(&r.ID, &due, &r.Target, &r.Text, &r.CreatedBy, &created, &fired); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		if r.When, err = storage.ParseTime(due); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = storage.ParseTime(created); err != nil {
			return nil, err
		}
		if fired.Valid {
			at, err := storage.ParseTime(fired.String)
			if err != nil {
				return nil, err
			}
			r.FiredAt = &at
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return out, nil
}
