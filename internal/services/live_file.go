package services

import (
	"os"
	"path/filepath"
)

// writeLiveFile replaces path with data through a temp file in the same
// directory and a rename. The temp file gets perm and, when path already
// exists, the owner and group of the file it replaces.
func writeLiveFile(path string, data []byte, perm os.FileMode) error {
	uid, gid, hasOwner := -1, -1, false
	if info, err := os.Stat(path); err == nil {
		uid, gid, hasOwner = fileOwner(info)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if hasOwner {
		if err := chownLike(tmp, uid, gid); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// chownLike gives f the uid and gid unless it already has them.
func chownLike(f *os.File, uid, gid int) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if curUID, curGID, ok := fileOwner(info); ok && curUID == uid && curGID == gid {
		return nil
	}
	return f.Chown(uid, gid)
}
