package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNetworkFilesystem is returned when the state database would live on a
// network mount, where SQLite file locking is unreliable.
var ErrNetworkFilesystem = errors.New("state database is on a network filesystem")

// fsDetector names the filesystem holding path. "" means unknown.
type fsDetector func(path string) (string, error)

// remoteFS lists filesystem names that SQLite must not be placed on.
var remoteFS = []string{"afpfs", "cifs", "nfs", "smb2", "smbfs", "webdav"}

func requireLocalFilesystem(dbPath string) error {
	return checkLocal(dbPath, detectFilesystemType)
}

func checkLocal(dbPath string, detect fsDetector) error {
	if dbPath == "" {
		return fmt.Errorf("sqlite path is empty")
	}
	dir, err := existingAncestor(dbPath)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", dbPath, err)
	}
	name, err := detect(dir)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", dir, err)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, remote := range remoteFS {
		if name == remote {
			return fmt.Errorf("%w: %s is on %s, set state.path to a local file", ErrNetworkFilesystem, dbPath, name)
		}
	}
	return nil
}

// existingAncestor returns the absolute form of p, or of its closest parent
// that exists.
func existingAncestor(p string) (string, error) {
	cur, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	for {
		_, err := os.Stat(cur)
		switch {
		case err == nil:
			return cur, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("no existing parent for %q", p)
		}
		cur = parent
	}
}
