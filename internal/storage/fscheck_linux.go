//go:build linux

package storage

import (
	"strconv"
	"syscall"
)

func detectFilesystemType(path string) (string, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return "", err
	}
	// Magic numbers from linux/magic.h.
	switch uint64(st.Type) {
	case 0x6969:
		return "nfs", nil
	case 0xFF534D42:
		return "cifs", nil
	case 0xFE534D42:
		return "smb2", nil
	case 0x517B:
		return "smbfs", nil
	}
	return "0x" + strconv.FormatUint(uint64(st.Type), 16), nil
}
