package services

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/moby/sys/atomicwriter"
	"github.com/rs/zerolog/log"
)

const (
	backupMarker    = ".bak."
	timestampLayout = "20060102150405"
	backupFileMode  = 0o600 // backups hold shared secrets from the live file
)

// ReplaceFunc writes data to path so that readers observe either the previous
// content or data, never a mix of both.
type ReplaceFunc func(path string, data []byte, perm os.FileMode) error

// BackupStore owns the backup artifacts of one tracked config. Artifacts for
// every config share a single directory and are told apart by filename prefix.
type BackupStore struct {
	config  string
	dir     string
	prefix  string // "<backup-prefix>.bak."
	now     func() time.Time
	replace ReplaceFunc
}

// NewBackupStore creates a store for config whose artifacts are named
// "<prefix>.bak.<YYYYMMDDHHMMSS>" inside dir.
func NewBackupStore(config, dir, prefix string) *BackupStore {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &BackupStore{
		config:  config,
		dir:     filepath.Clean(dir),
		prefix:  prefix + backupMarker,
		now:     time.Now,
		replace: atomicwriter.WriteFile,
	}
}

// Dir returns the backup directory.
func (s *BackupStore) Dir() string {
	return s.dir
}

// Prefix returns the filename prefix every artifact of this store starts with.
func (s *BackupStore) Prefix() string {
	return s.prefix
}

// Owns reports whether id names an artifact of this store. It never touches the filesystem.
func (s *BackupStore) Owns(id string) bool {
	_, _, ok := s.resolve(id)
	return ok
}

// Validate checks that id belongs to this store and returns its bare filename.
func (s *BackupStore) Validate(op, id string) (string, error) {
	name, _, ok := s.resolve(id)
	if !ok {
		return "", opError(op, s.config, id, ErrInvalidBackupReference, nil)
	}
	return name, nil
}

// resolve accepts either a bare artifact filename or a path to one inside the
// backup directory.
func (s *BackupStore) resolve(id string) (string, time.Time, bool) {
	if id == "" {
		return "", time.Time{}, false
	}
	name := filepath.Base(id)
	if name != id {
		dir, err := filepath.Abs(filepath.Dir(id))
		if err != nil || filepath.Clean(dir) != s.dir {
			return "", time.Time{}, false
		}
	}
	ts, ok := s.parseName(name)
	if !ok {
		return "", time.Time{}, false
	}
	return name, ts, true
}

func (s *BackupStore) parseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, s.prefix) {
		return time.Time{}, false
	}
	stamp := name[len(s.prefix):]
	if len(stamp) != len(timestampLayout) {
		return time.Time{}, false
	}
	for _, r := range stamp {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}
	ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Snapshot writes content to a new artifact stamped with the current second.
// A second snapshot within the same second replaces the first one.
func (s *BackupStore) Snapshot(content []byte) (models.Backup, error) {
	created := s.now().Truncate(time.Second)
	name := s.prefix + created.Format(timestampLayout)
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.Backup{}, opError("snapshot", s.config, name, ErrBackupWriteFailed, err)
	}
	if err := s.replace(path, content, backupFileMode); err != nil {
		return models.Backup{}, opError("snapshot", s.config, name, ErrBackupWriteFailed, err)
	}

	log.Info().Str("config", s.config).Str("backup_id", name).Int("bytes", len(content)).Msg("Snapshot created")
	return models.Backup{
		ID:        name,
		Config:    s.config,
		Path:      path,
		Size:      int64(len(content)),
		CreatedAt: created,
	}, nil
}

// List returns every artifact currently in the backup directory, newest first.
func (s *BackupStore) List() ([]models.Backup, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Backup{}, nil
		}
		return nil, opError("list", s.config, s.dir, ErrReadFailed, err)
	}

	backups := make([]models.Backup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := s.parseName(entry.Name())
		if !ok {
			if strings.HasPrefix(entry.Name(), s.prefix) {
				log.Debug().Str("config", s.config).Str("file", entry.Name()).Msg("Skipping backup with malformed timestamp")
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		backups = append(backups, models.Backup{
			ID:        entry.Name(),
			Config:    s.config,
			Path:      filepath.Join(s.dir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: ts,
		})
	}

	// Fixed prefix and zero-padded stamp: lexical order is chronological order.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ID > backups[j].ID
	})
	return backups, nil
}

// Read returns the full content of the artifact named by id.
func (s *BackupStore) Read(id string) ([]byte, error) {
	name, err := s.Validate("read backup", id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, opError("read backup", s.config, name, ErrNotFound, err)
		}
		return nil, opError("read backup", s.config, name, ErrReadFailed, err)
	}
	return data, nil
}

// Delete removes the artifact named by id. Deleting an artifact that is
// already gone fails with ErrNotFound.
func (s *BackupStore) Delete(id string) error {
	name, err := s.Validate("delete", id)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return opError("delete", s.config, name, ErrNotFound, err)
		}
		return opError("delete", s.config, name, ErrDeleteFailed, err)
	}
	log.Info().Str("config", s.config).Str("backup_id", name).Msg("Backup deleted")
	return nil
}
