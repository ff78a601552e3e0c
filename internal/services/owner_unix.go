//go:build unix

package services

import (
	"os"
	"syscall"
)

// fileOwner returns the uid and gid recorded in info.
func fileOwner(info os.FileInfo) (uid, gid int, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return -1, -1, false
	}
	return int(st.Uid), int(st.Gid), true
}
