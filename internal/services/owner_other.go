//go:build !unix

package services

import "os"

// fileOwner reports no owner on platforms without POSIX ownership.
func fileOwner(os.FileInfo) (uid, gid int, ok bool) {
	return -1, -1, false
}
