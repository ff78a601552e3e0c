package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/cjk303/tacacs-viewer/internal/config"
	"github.com/cjk303/tacacs-viewer/internal/database"
	"github.com/cjk303/tacacs-viewer/internal/docker"
	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/cjk303/tacacs-viewer/internal/websocket"
	"github.com/rs/zerolog/log"
)

// app holds the services shared by the server and the one-shot commands.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	docker *docker.Client

	events    *services.EventService
	configs   *services.ConfigService
	restores  *services.RestoreService
	restarts  *services.RestartService
	schedules *services.ScheduleService
}

// newApp opens the database and builds every service. hub may be nil when
// nothing is listening for live events.
func newApp(cfg *config.Config, hub *websocket.Hub) (*app, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying database migrations: %w", err)
	}

	a := &app{cfg: cfg, db: db}
	a.events = services.NewEventService(db, hub)

	files := make([]*services.ConfigFile, 0, len(cfg.Tracked()))
	for _, t := range cfg.Tracked() {
		store := services.NewBackupStore(t.Name, cfg.BackupDir, t.BackupPrefix)
		files = append(files, services.NewConfigFile(t.Name, t.Path, store))
	}
	a.configs, err = services.NewConfigService(files, a.events)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.restores = services.NewRestoreService(a.configs, a.events)
	a.schedules = services.NewScheduleService(db, a.configs, a.events)

	if err := a.registerRestarts(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// registerRestarts binds every tracked config to the requester its restart
// method names. The docker client is only created if some config needs it.
func (a *app) registerRestarts() error {
	a.restarts = services.NewRestartService(a.events)
	for _, t := range a.cfg.Tracked() {
		var containers restarter.ContainerRestarter
		if t.Restart.Method == restarter.MethodDocker {
			if a.docker == nil {
				client, err := docker.New()
				if err != nil {
					return fmt.Errorf("initializing docker client: %w", err)
				}
				a.docker = client
			}
			containers = a.docker
		}
		requester, err := restarter.New(t.Restart.Method, containers)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		a.restarts.Register(t.Name, requester, t.Restart.Target)
		log.Debug().Str("service", t.Name).Str("method", t.Restart.Method).Str("target", t.Restart.Target).Msg("Registered restart method")
	}
	return nil
}

// Close releases the database and docker client.
func (a *app) Close() {
	if a.docker != nil {
		if err := a.docker.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close docker client")
		}
	}
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
