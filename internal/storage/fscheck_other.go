//go:build !linux

package storage

// detectFilesystemType cannot tell network mounts apart on this platform.
func detectFilesystemType(string) (string, error) {
	return "", nil
}
