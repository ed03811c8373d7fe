package remind

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/ircbotd/internal/events"
	"github.com/mattjoyce/ircbotd/internal/storage"
)

type said struct{ target, text string }

type fakeSayer struct{ lines []said }

func (f *fakeSayer) Say(target, text string) error {
	f.lines = append(f.lines, said{target, text})
	return nil
}

func (f *fakeSayer) last() said {
	if len(f.lines) == 0 {
		return said{}
	}
	return f.lines[len(f.lines)-1]
}

type scheduled struct {
	when  time.Time
	label string
	fn    func()
}

type fakeScheduler struct{ entries []scheduled }

func (f *fakeScheduler) Schedule(when time.Time, label string, fn func()) {
	f.entries = append(f.entries, scheduled{when, label, fn})
}

func newTestService(t *testing.T) (*Service, *Store, *fakeSayer, *fakeScheduler, *events.Hub) {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ircbotd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db)
	out := &fakeSayer{}
	sched := &fakeScheduler{}
	hub := events.NewHub(16)
	svc := NewService(store, sched, out, slog.New(slog.NewJSONHandler(io.Discard, nil)), nil, hub)
	svc.Now = func() time.Time { return now }
	return svc, store, out, sched, hub
}

func TestHandleErrors(t *testing.T) {
	svc, _, out, sched, _ := newTestService(t)

	tests := []struct {
		arg  string
		want string
	}{
		{"", ReplyNoTime},
		{"soon please", ReplyBadDate},
		{"25:00 x", ReplyBadDate},
		{"16:00", ReplyNoSpace},
		{"16:00x", ReplyNoSpace},
		{"16:00 ", ReplyEmptyMessage},
		{"14:00 x", ReplyInPast},
		{"16:00 1/1 20 ancient", ReplyInPast},
	}
	for _, tt := range tests {
		svc.Handle("alice", tt.arg, "#chan")
		assert.Equal(t, said{"#chan", tt.want}, out.last(), "arg %q", tt.arg)
	}
	assert.Empty(t, sched.entries)
}

func TestHandleSchedulesAndConfirms(t *testing.T) {
	svc, store, out, sched, hub := newTestService(t)

	svc.Handle("alice", "16:01:46 take the cake out", "#chan")

	assert.Equal(t, said{"#chan", "I will remind you in approx. 1 hour, 31 minutes, 1 second!"}, out.last())
	require.Len(t, sched.entries, 1)
	want := time.Date(2024, 5, 15, 16, 1, 46, 0, berlin)
	assert.True(t, sched.entries[0].when.Equal(want))

	pending, err := store.Pending(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "take the cake out", pending[0].Text)
	assert.Equal(t, "#chan", pending[0].Target)
	assert.Equal(t, "alice", pending[0].CreatedBy)

	// Firing delivers and marks the row.
	sched.entries[0].fn()
	assert.Equal(t, said{"#chan", "REMINDER: take the cake out"}, out.last())
	pending, err = store.Pending(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].FiredAt)

	var types []string
	for _, ev := range hub.SnapshotSince(0) {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{events.TypeReminderScheduled, events.TypeReminderFired}, types)
}

func TestDuplicateRequestIsScheduledOnce(t *testing.T) {
	svc, _, out, sched, _ := newTestService(t)

	svc.Handle("alice", "16:00 standup", "#chan")
	svc.Handle("bob", "16:00 standup", "#chan")

	assert.Len(t, sched.entries, 1)
	assert.Len(t, out.lines, 2)
	assert.Contains(t, out.last().text, "I will remind you in approx.")
}

func TestRestoreSchedulesFutureReminders(t *testing.T) {
	svc, store, _, sched, _ := newTestService(t)
	ctx := context.Background()

	for _, r := range []*Reminder{
		{When: now.Add(-time.Hour), Target: "#chan", Text: "missed", CreatedAt: now.Add(-2 * time.Hour)},
		{When: now.Add(2 * time.Hour), Target: "bob", Text: "second", CreatedAt: now},
		{When: now.Add(time.Hour), Target: "#chan", Text: "first", CreatedAt: now},
	} {
		_, err := store.Add(ctx, r)
		require.NoError(t, err)
	}

	n, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, sched.entries, 2)
	assert.True(t, sched.entries[0].when.Equal(now.Add(time.Hour)))
	assert.True(t, sched.entries[1].when.Equal(now.Add(2*time.Hour)))
}

func TestConfirmation(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "I will remind you in approx. 0 seconds!"},
		{time.Second, "I will remind you in approx. 1 second!"},
		{61 * time.Second, "I will remind you in approx. 1 minute, 1 second!"},
		{2*24*time.Hour + 5*time.Second, "I will remind you in approx. 2 days, 5 seconds!"},
		{25*time.Hour + 2*time.Minute, "I will remind you in approx. 1 day, 1 hour, 2 minutes, 0 seconds!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, confirmation(tt.d))
	}
}

func TestReminderIDIsStable(t *testing.T) {
	a := ReminderID(now, "#chan", "x")
	assert.Equal(t, a, ReminderID(now.UTC(), "#chan", "x"))
	assert.NotEqual(t, a, ReminderID(now, "#chan", "y"))
	assert.Len(t, a, 32)
}
