package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenSQLiteBootstrapsTables(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "data", "ircbotd.db")
	db, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"reminders", "chat_log"} {
		var name string
		if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?;", table).Scan(&name); err != nil {
			t.Fatalf("table %q missing: %v", table, err)
		}
	}

	// Bootstrapping twice is harmless.
	if err := BootstrapSQLite(context.Background(), db); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestTimeEncodingSortsChronologically(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CEST", 2*60*60)
	early := time.Date(2024, 5, 1, 13, 37, 0, 0, loc)
	late := early.Add(500 * time.Millisecond)

	a, b := FormatTime(early), FormatTime(late)
	if !(a < b) {
		t.Fatalf("%q should sort before %q", a, b)
	}

	back, err := ParseTime(b)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(late) {
		t.Fatalf("round trip = %v, want %v", back, late)
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Fatal("expected parse error")
	}
}
