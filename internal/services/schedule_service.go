package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var (
	// ErrScheduleNotFound is returned when a schedule id does not exist.
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrInvalidSchedule wraps every validation failure of a schedule.
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// ScheduleServiceProvider defines the interface for schedule services.
type ScheduleServiceProvider interface {
	CreateSchedule(schedule models.Schedule) (models.Schedule, error)
	GetSchedules() ([]models.Schedule, error)
	GetScheduleByID(scheduleID string) (models.Schedule, error)
	GetAllActiveSchedules() ([]models.Schedule, error)
	UpdateSchedule(scheduleID string, schedule models.Schedule) (models.Schedule, error)
	DeleteSchedule(scheduleID string) error
	UpdateScheduleRunTimes(scheduleID string, lastRun time.Time, nextRun time.Time) error
}

// ScheduleService provides business logic for schedule management.
type ScheduleService struct {
	db            *sql.DB
	configService ConfigServiceProvider
	eventService  EventServiceProvider
	now           func() time.Time
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(db *sql.DB, configService ConfigServiceProvider, eventService EventServiceProvider) *ScheduleService {
	return &ScheduleService{
		db:            db,
		configService: configService,
		eventService:  eventService,
		now:           time.Now,
	}
}

// validate checks the config, task type and cron expression of schedule.
func (s *ScheduleService) validate(schedule models.Schedule) (cron.Schedule, error) {
	if schedule.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	}
	if _, err := s.configService.Get(schedule.Config); err != nil {
		return nil, err
	}
	switch schedule.TaskType {
	case models.TaskBackup, models.TaskRestart:
	default:
		return nil, fmt.Errorf("%w: unknown task type %q", ErrInvalidSchedule, schedule.TaskType)
	}
	cronSchedule, err := cron.ParseStandard(schedule.CronExpression)
	if err != nil {
		return nil, fmt.Errorf("%w: cron expression %q: %v", ErrInvalidSchedule, schedule.CronExpression, err)
	}
	return cronSchedule, nil
}

// CreateSchedule creates a new schedule and saves it to the database.
func (s *ScheduleService) CreateSchedule(schedule models.Schedule) (models.Schedule, error) {
	cronSchedule, err := s.validate(schedule)
	if err != nil {
		return models.Schedule{}, err
	}

	now := s.now()
	schedule.ID = uuid.New().String()
	nextRun := cronSchedule.Next(now)
	schedule.NextRunAt = &nextRun

	_, err = s.db.Exec(`
		INSERT INTO schedules (id, config, name, cron_expression, task_type, is_active, next_run_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID, schedule.Config, schedule.Name, schedule.CronExpression, schedule.TaskType, schedule.IsActive, schedule.NextRunAt, now.UTC())
	if err != nil {
		return models.Schedule{}, err
	}

	s.recordEvent("schedule.create", "info", fmt.Sprintf("Schedule '%s' created for '%s'.", schedule.Name, schedule.Config), schedule.Config)
	return s.GetScheduleByID(schedule.ID)
}

// GetSchedules retrieves every schedule, newest first.
func (s *ScheduleService) GetSchedules() ([]models.Schedule, error) {
	rows, err := s.db.Query(`
		SELECT id, config, name, cron_expression, task_type, is_active, last_run_at, next_run_at, created_at
		FROM schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanSchedules(rows)
}

// GetScheduleByID retrieves a single schedule by its ID.
func (s *ScheduleService) GetScheduleByID(scheduleID string) (models.Schedule, error) {
	row := s.db.QueryRow(`
		SELECT id, config, name, cron_expression, task_type, is_active, last_run_at, next_run_at, created_at
		FROM schedules WHERE id = ?`, scheduleID)
	return s.scanSchedule(row)
}

// GetAllActiveSchedules retrieves all active schedules from the database.
func (s *ScheduleService) GetAllActiveSchedules() ([]models.Schedule, error) {
	rows, err := s.db.Query(`
		SELECT id, config, name, cron_expression, task_type, is_active, last_run_at, next_run_at, created_at
		FROM schedules WHERE is_active = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanSchedules(rows)
}

// UpdateSchedule updates an existing schedule and recomputes its next run.
func (s *ScheduleService) UpdateSchedule(scheduleID string, schedule models.Schedule) (models.Schedule, error) {
	if _, err := s.GetScheduleByID(scheduleID); err != nil {
		return models.Schedule{}, err
	}
	cronSchedule, err := s.validate(schedule)
	if err != nil {
		return models.Schedule{}, err
	}

	nextRun := cronSchedule.Next(s.now())
	_, err = s.db.Exec(`
		UPDATE schedules
		SET config = ?, name = ?, cron_expression = ?, task_type = ?, is_active = ?, next_run_at = ?
		WHERE id = ?`,
		schedule.Config, schedule.Name, schedule.CronExpression, schedule.TaskType, schedule.IsActive, nextRun, scheduleID)
	if err != nil {
		return models.Schedule{}, err
	}

	s.recordEvent("schedule.update", "info", fmt.Sprintf("Schedule '%s' updated.", schedule.Name), schedule.Config)
	return s.GetScheduleByID(scheduleID)
}

// DeleteSchedule removes a schedule from the database.
func (s *ScheduleService) DeleteSchedule(scheduleID string) error {
	schedule, err := s.GetScheduleByID(scheduleID)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM schedules WHERE id = ?", scheduleID); err != nil {
		return err
	}
	s.recordEvent("schedule.delete", "warn", fmt.Sprintf("Schedule '%s' was deleted.", schedule.Name), schedule.Config)
	return nil
}

// UpdateScheduleRunTimes updates the last and next run times for a schedule after it executes.
func (s *ScheduleService) UpdateScheduleRunTimes(scheduleID string, lastRun time.Time, nextRun time.Time) error {
	_, err := s.db.Exec("UPDATE schedules SET last_run_at = ?, next_run_at = ? WHERE id = ?", lastRun.UTC(), nextRun.UTC(), scheduleID)
	return err
}

// scanSchedules is a helper function to scan multiple rows into a slice of Schedules.
func (s *ScheduleService) scanSchedules(rows *sql.Rows) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	for rows.Next() {
		schedule, err := s.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

// scanSchedule is a helper function to scan a single row into a Schedule struct.
func (s *ScheduleService) scanSchedule(scanner interface{ Scan(...interface{}) error }) (models.Schedule, error) {
	var schedule models.Schedule
	var lastRun, nextRun sql.NullTime
	err := scanner.Scan(
		&schedule.ID,
		&schedule.Config,
		&schedule.Name,
		&schedule.CronExpression,
		&schedule.TaskType,
		&schedule.IsActive,
		&lastRun,
		&nextRun,
		&schedule.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Schedule{}, ErrScheduleNotFound
		}
		return models.Schedule{}, err
	}
	if lastRun.Valid {
		schedule.LastRunAt = &lastRun.Time
	}
	if nextRun.Valid {
		schedule.NextRunAt = &nextRun.Time
	}
	return schedule, nil
}

func (s *ScheduleService) recordEvent(eventType, level, message, config string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(eventType, level, message, &config); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
