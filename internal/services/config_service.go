package services

import (
	"fmt"
	"path/filepath"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/rs/zerolog/log"
)

// ConfigServiceProvider defines the interface for config services.
type ConfigServiceProvider interface {
	Names() []string
	Files() []models.ConfigFileInfo
	Get(name string) (*ConfigFile, error)
	Resolve(id string) (*ConfigFile, error)
	Read(name string) ([]byte, error)
	Write(name string, content []byte) (models.Backup, error)
	Snapshot(name string) (models.Backup, error)
	ListBackups(name string) ([]models.Backup, error)
	ListAllBackups() (map[string][]models.Backup, error)
	ReadBackup(name, id string) ([]byte, error)
	DeleteBackup(id string) (string, error)
	DeleteConfigBackup(name, id string) error
}

// ConfigService is the registry of tracked config files and the entry point
// for every read, write and backup operation on them.
type ConfigService struct {
	files        map[string]*ConfigFile
	order        []string
	eventService EventServiceProvider
}

// NewConfigService creates a ConfigService over files. Names and backup
// prefixes must be unique so that every identifier has exactly one owner.
func NewConfigService(files []*ConfigFile, eventService EventServiceProvider) (*ConfigService, error) {
	s := &ConfigService{
		files:        make(map[string]*ConfigFile, len(files)),
		eventService: eventService,
	}
	prefixes := make(map[string]string, len(files))
	for _, f := range files {
		if _, dup := s.files[f.Name()]; dup {
			return nil, fmt.Errorf("config %q registered twice", f.Name())
		}
		if owner, dup := prefixes[f.Store().Prefix()]; dup {
			return nil, fmt.Errorf("configs %q and %q share backup prefix %q", owner, f.Name(), f.Store().Prefix())
		}
		prefixes[f.Store().Prefix()] = f.Name()
		s.files[f.Name()] = f
		s.order = append(s.order, f.Name())
	}
	return s, nil
}

// Names returns the tracked config names in registration order.
func (s *ConfigService) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Files describes every tracked config.
func (s *ConfigService) Files() []models.ConfigFileInfo {
	infos := make([]models.ConfigFileInfo, 0, len(s.order))
	for _, name := range s.order {
		infos = append(infos, s.files[name].Info())
	}
	return infos
}

// Get returns the tracked config called name.
func (s *ConfigService) Get(name string) (*ConfigFile, error) {
	f, ok := s.files[name]
	if !ok {
		return nil, opError("resolve", name, "", ErrUnknownConfig, nil)
	}
	return f, nil
}

// Resolve finds the config owning the backup identifier id.
func (s *ConfigService) Resolve(id string) (*ConfigFile, error) {
	for _, name := range s.order {
		if s.files[name].Store().Owns(id) {
			return s.files[name], nil
		}
	}
	return nil, opError("resolve", "", id, ErrInvalidBackupReference, nil)
}

// Read returns the live content of name.
func (s *ConfigService) Read(name string) ([]byte, error) {
	f, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return f.Read()
}

// Write replaces the live content of name, snapshotting the previous content first.
func (s *ConfigService) Write(name string, content []byte) (models.Backup, error) {
	f, err := s.Get(name)
	if err != nil {
		return models.Backup{}, err
	}
	backup, err := f.WriteWithBackup(content)
	if err != nil {
		if backup.ID != "" {
			s.recordEvent("config.write.fail", "error", fmt.Sprintf("Saving '%s' failed after backup %s was taken: %v", name, backup.ID, err), name)
		}
		return backup, err
	}
	s.recordEvent("config.write", "info", fmt.Sprintf("Config '%s' saved with backup %s.", name, backup.ID), name)
	return backup, nil
}

// Snapshot backs up the current live content of name without changing it.
func (s *ConfigService) Snapshot(name string) (models.Backup, error) {
	f, err := s.Get(name)
	if err != nil {
		return models.Backup{}, err
	}
	current, err := f.Read()
	if err != nil {
		return models.Backup{}, err
	}
	backup, err := f.Store().Snapshot(current)
	if err != nil {
		return models.Backup{}, err
	}
	s.recordEvent("backup.create", "info", fmt.Sprintf("Backup %s created for '%s'.", backup.ID, name), name)
	return backup, nil
}

// ListBackups returns the backups of name, newest first.
func (s *ConfigService) ListBackups(name string) ([]models.Backup, error) {
	f, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return f.Store().List()
}

// ListAllBackups returns the backups of every tracked config, newest first per config.
func (s *ConfigService) ListAllBackups() (map[string][]models.Backup, error) {
	all := make(map[string][]models.Backup, len(s.order))
	for _, name := range s.order {
		backups, err := s.files[name].Store().List()
		if err != nil {
			return nil, err
		}
		all[name] = backups
	}
	return all, nil
}

// ReadBackup returns the content of backup id of name.
func (s *ConfigService) ReadBackup(name, id string) ([]byte, error) {
	f, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return f.Store().Read(id)
}

// DeleteBackup deletes backup id, inferring its config from the identifier.
// It returns the owning config name.
func (s *ConfigService) DeleteBackup(id string) (string, error) {
	f, err := s.Resolve(id)
	if err != nil {
		return "", err
	}
	return f.Name(), s.deleteFrom(f, id)
}

// DeleteConfigBackup deletes backup id, which must belong to name.
func (s *ConfigService) DeleteConfigBackup(name, id string) error {
	f, err := s.Get(name)
	if err != nil {
		return err
	}
	return s.deleteFrom(f, id)
}

func (s *ConfigService) deleteFrom(f *ConfigFile, id string) error {
	if err := f.Store().Delete(id); err != nil {
		return err
	}
	s.recordEvent("backup.delete", "warn", fmt.Sprintf("Backup %s of '%s' was deleted.", filepath.Base(id), f.Name()), f.Name())
	return nil
}

func (s *ConfigService) recordEvent(eventType, level, message, config string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(eventType, level, message, &config); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
