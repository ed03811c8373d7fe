package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLocal(t *testing.T) {
	tests := []struct {
		fs     string
		remote bool
	}{
		{"0xef53", false},
		{"", false},
		{"nfs", true},
		{" SMB2 ", true},
		{"webdav", true},
	}
	for _, tt := range tests {
		dbPath := filepath.Join(t.TempDir(), "ircbotd.db")
		err := checkLocal(dbPath, func(string) (string, error) { return tt.fs, nil })
		if tt.remote {
			assert.ErrorIs(t, err, ErrNetworkFilesystem, tt.fs)
			assert.ErrorContains(t, err, "set state.path to a local file")
		} else {
			assert.NoError(t, err, tt.fs)
		}
	}
}

func TestCheckLocalInspectsNearestExistingDir(t *testing.T) {
	root := t.TempDir()
	var inspected string
	err := checkLocal(filepath.Join(root, "a", "b", "ircbotd.db"), func(p string) (string, error) {
		inspected = p
		return "0xef53", nil
	})
	require.NoError(t, err)
	assert.Equal(t, root, inspected)
}

func TestCheckLocalRejectsEmptyPath(t *testing.T) {
	assert.Error(t, requireLocalFilesystem(""))
}
