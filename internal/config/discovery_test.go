package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverPrefersEnv(t *testing.T) {
	path := writeConfig(t, "bot.yaml", "connection:\n  server: x\n")
	t.Setenv(EnvConfigPath, path)

	got, err := Discover()
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if got != path {
		t.Errorf("Discover() = %q, want %q", got, path)
	}
}

func TestDiscoverUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigPath, "")

	dir := filepath.Join(home, ".config", "ircbotd")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(want, []byte("connection:\n  server: x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := Discover()
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if got != want {
		t.Errorf("Discover() = %q, want %q", got, want)
	}
}

func TestResolveExplicitWins(t *testing.T) {
	got, err := Resolve("/some/where.yaml")
	if err != nil || got != "/some/where.yaml" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}
}
