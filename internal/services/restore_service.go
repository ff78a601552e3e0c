package services

import (
	"fmt"
	"path/filepath"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/rs/zerolog/log"
)

// RestoreStage is the step a restore attempt has reached.
type RestoreStage string

const (
	StageRequested  RestoreStage = "requested"
	StageValidating RestoreStage = "validating"
	StageReading    RestoreStage = "reading"
	StageReplacing  RestoreStage = "replacing"
	StageDone       RestoreStage = "done"
)

// RestoreServiceProvider defines the interface for restore services.
type RestoreServiceProvider interface {
	Restore(configName, id string) (models.Backup, error)
	RestoreByIdentifier(id string) (models.Backup, error)
}

// RestoreService applies a stored backup as the new live content of its config.
// It does not snapshot the content being overwritten and does not restart the
// dependent service; both are left to the caller.
type RestoreService struct {
	configService *ConfigService
	eventService  EventServiceProvider
}

// NewRestoreService creates a new RestoreService.
func NewRestoreService(configService *ConfigService, eventService EventServiceProvider) *RestoreService {
	return &RestoreService{
		configService: configService,
		eventService:  eventService,
	}
}

// RestoreByIdentifier restores backup id onto the config its prefix names.
func (s *RestoreService) RestoreByIdentifier(id string) (models.Backup, error) {
	f, err := s.configService.Resolve(id)
	if err != nil {
		log.Warn().Err(err).Str("backup_id", id).Str("stage", string(StageValidating)).Msg("Restore rejected")
		return models.Backup{}, err
	}
	return s.Restore(f.Name(), id)
}

// Restore replaces the live file of configName with the content of backup id.
// The identifier is checked against the config's prefix before anything is
// read, so a backup of one service can never land in another's live file.
func (s *RestoreService) Restore(configName, id string) (models.Backup, error) {
	stage := StageRequested
	fail := func(err error) (models.Backup, error) {
		log.Warn().Err(err).Str("config", configName).Str("backup_id", id).Str("stage", string(stage)).Msg("Restore failed")
		return models.Backup{}, err
	}

	f, err := s.configService.Get(configName)
	if err != nil {
		return fail(err)
	}

	stage = StageValidating
	name, ts, ok := f.Store().resolve(id)
	if !ok {
		return fail(opError("restore", configName, id, ErrInvalidBackupReference, nil))
	}

	stage = StageReading
	content, err := f.Store().Read(name)
	if err != nil {
		return fail(err)
	}

	stage = StageReplacing
	if err := f.replaceLive(content); err != nil {
		return fail(opError("restore", configName, f.Path(), ErrWriteFailed, err))
	}

	stage = StageDone
	log.Info().Str("config", configName).Str("backup_id", name).Str("stage", string(stage)).Msg("Backup restored")
	if s.eventService != nil {
		msg := fmt.Sprintf("Restored backup: %s", name)
		if err := s.eventService.CreateEvent("backup.restore", "warn", msg, &configName); err != nil {
			log.Warn().Err(err).Msg("Failed to record restore event")
		}
	}

	return models.Backup{
		ID:        name,
		Config:    configName,
		Path:      filepath.Join(f.Store().Dir(), name),
		Size:      int64(len(content)),
		CreatedAt: ts,
	}, nil
}
