package services

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/rs/zerolog/log"
)

// Mode for a live file recreated by a restore; it may hold shared secrets.
const defaultLiveFileMode = 0o600

// ConfigFile is one live configuration file bound to its backup store.
// It keeps no content in memory; every call goes back to disk.
type ConfigFile struct {
	name    string
	path    string
	store   *BackupStore
	replace ReplaceFunc
}

// NewConfigFile binds the live file at path to store under the logical name.
func NewConfigFile(name, path string, store *BackupStore) *ConfigFile {
	return &ConfigFile{
		name:    name,
		path:    path,
		store:   store,
		replace: writeLiveFile,
	}
}

// Name returns the logical config name.
func (c *ConfigFile) Name() string { return c.name }

// Path returns the live file path.
func (c *ConfigFile) Path() string { return c.path }

// Store returns the backup store bound to this file.
func (c *ConfigFile) Store() *BackupStore { return c.store }

// Info describes the file for listings.
func (c *ConfigFile) Info() models.ConfigFileInfo {
	_, err := os.Stat(c.path)
	return models.ConfigFileInfo{
		Name:         c.name,
		Path:         c.path,
		BackupPrefix: c.store.Prefix(),
		Exists:       err == nil,
	}
}

// Read returns the current live content.
func (c *ConfigFile) Read() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, opError("read", c.name, c.path, ErrNotFound, err)
		}
		return nil, opError("read", c.name, c.path, ErrReadFailed, err)
	}
	return data, nil
}

// WriteWithBackup snapshots the current live content and only then replaces
// the live file with content. If the snapshot fails the live file is left
// untouched; if the replace fails the snapshot is kept.
func (c *ConfigFile) WriteWithBackup(content []byte) (models.Backup, error) {
	if !utf8.Valid(content) {
		return models.Backup{}, opError("write", c.name, c.path, ErrInvalidContent, errors.New("content is not valid UTF-8"))
	}

	current, err := c.Read()
	if err != nil {
		return models.Backup{}, err
	}

	backup, err := c.store.Snapshot(current)
	if err != nil {
		return models.Backup{}, err
	}

	if err := c.replaceLive(content); err != nil {
		log.Error().Err(err).Str("config", c.name).Str("backup_id", backup.ID).Msg("Live file replace failed after snapshot")
		return backup, opError("write", c.name, c.path, ErrWriteFailed, err)
	}

	log.Info().Str("config", c.name).Str("backup_id", backup.ID).Int("bytes", len(content)).Msg("Live file replaced")
	return backup, nil
}

// replaceLive atomically swaps in content, keeping the current permissions,
// owner and group. A symlinked live path has its target replaced so the link
// survives.
func (c *ConfigFile) replaceLive(content []byte) error {
	target := c.path
	if resolved, err := filepath.EvalSymlinks(c.path); err == nil {
		target = resolved
	}

	perm := os.FileMode(defaultLiveFileMode)
	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
	}
	return c.replace(target, content, perm)
}
