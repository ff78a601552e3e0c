package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const restartTimeout = 2 * time.Minute

// Scheduler checks for and executes scheduled tasks.
type Scheduler struct {
	scheduleSvc services.ScheduleServiceProvider
	configSvc   services.ConfigServiceProvider
	restartSvc  services.RestartServiceProvider
	eventSvc    services.EventServiceProvider
	now         func() time.Time
	ticker      *time.Ticker
	done        chan struct{}
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(scheduleSvc services.ScheduleServiceProvider, configSvc services.ConfigServiceProvider, restartSvc services.RestartServiceProvider, eventSvc services.EventServiceProvider) *Scheduler {
	return &Scheduler{
		scheduleSvc: scheduleSvc,
		configSvc:   configSvc,
		restartSvc:  restartSvc,
		eventSvc:    eventSvc,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

// Run starts the scheduler's ticking loop.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	// Run once immediately on start
	s.checkAndRunSchedules()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background scheduler.")
			return
		case <-s.ticker.C:
			s.checkAndRunSchedules()
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	close(s.done)
}

// checkAndRunSchedules runs every active schedule whose next run is due.
// Tasks run one after another: a snapshot and a restart of the same config
// must not interleave.
func (s *Scheduler) checkAndRunSchedules() {
	schedules, err := s.scheduleSvc.GetAllActiveSchedules()
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to retrieve active schedules")
		return
	}

	for _, schedule := range schedules {
		cronSchedule, err := cron.ParseStandard(schedule.CronExpression)
		if err != nil {
			log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Invalid cron expression")
			continue
		}

		now := s.now()
		if schedule.NextRunAt == nil || now.Before(*schedule.NextRunAt) {
			continue
		}

		s.executeTask(schedule)
		if err := s.scheduleSvc.UpdateScheduleRunTimes(schedule.ID, now, cronSchedule.Next(now)); err != nil {
			log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Failed to update run times")
		}
	}
}

// executeTask performs the action defined by the schedule.
func (s *Scheduler) executeTask(schedule models.Schedule) {
	log.Info().Str("schedule", schedule.Name).Str("config", schedule.Config).Str("task", schedule.TaskType).Msg("Scheduler: Executing task")
	var err error

	switch schedule.TaskType {
	case models.TaskBackup:
		_, err = s.configSvc.Snapshot(schedule.Config)
	case models.TaskRestart:
		ctx, cancel := context.WithTimeout(context.Background(), restartTimeout)
		_, err = s.restartSvc.RequestRestart(ctx, schedule.Config)
		cancel()
	default:
		err = fmt.Errorf("unknown task type '%s' for schedule %s", schedule.TaskType, schedule.ID)
	}

	if err != nil {
		log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Error executing task")
		msg := fmt.Sprintf("Scheduled task '%s' failed to execute: %v", schedule.Name, err)
		s.recordEvent("schedule.execute.fail", "error", msg, schedule.Config)
		return
	}
	msg := fmt.Sprintf("Scheduled task '%s' executed successfully.", schedule.Name)
	s.recordEvent("schedule.execute.success", "info", msg, schedule.Config)
}

func (s *Scheduler) recordEvent(eventType, level, message, config string) {
	if err := s.eventSvc.CreateEvent(eventType, level, message, &config); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
