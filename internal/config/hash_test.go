package config

import (
	"os"
	"testing"
)

func TestFingerprintTracksFileContents(t *testing.T) {
	path := writeConfig(t, "config.yaml", "connection:\n  server: a\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	first, err := cfg.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 16 {
		t.Fatalf("fingerprint %q should be 16 hex chars", first)
	}

	if err := os.WriteFile(path, []byte("connection:\n  server: b\n"), 0600); err != nil {
		t.Fatal(err)
	}
	second, err := cfg.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("fingerprint did not change with file contents")
	}
}

func TestFingerprintWithoutSource(t *testing.T) {
	fp, err := Defaults().Fingerprint()
	if err != nil || fp != "" {
		t.Fatalf("Fingerprint() = %q, %v", fp, err)
	}
}

func TestComputeBlake3HashMissingFile(t *testing.T) {
	if _, err := ComputeBlake3Hash("/does/not/exist"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
