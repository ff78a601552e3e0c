package api

import (
	"github.com/cjk303/tacacs-viewer/internal/api/handlers"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/cjk303/tacacs-viewer/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps carries everything the router needs to build its handlers.
type Deps struct {
	Hub            *websocket.Hub
	Configs        services.ConfigServiceProvider
	Restores       services.RestoreServiceProvider
	Restarts       services.RestartServiceProvider
	Events         services.EventServiceProvider
	Schedules      services.ScheduleServiceProvider
	Disk           handlers.DiskStatusProvider
	Docker         handlers.DaemonPinger
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	configHandler := handlers.NewConfigHandler(d.Configs, d.Restarts)
	backupHandler := handlers.NewBackupHandler(d.Configs, d.Restores, d.Restarts)
	serviceHandler := handlers.NewServiceHandler(d.Restarts)
	eventHandler := handlers.NewEventHandler(d.Events)
	scheduleHandler := handlers.NewScheduleHandler(d.Schedules)
	statusHandler := handlers.NewStatusHandler(d.Configs, d.Disk, d.Docker)

	r.Route("/api/v1", func(r chi.Router) {
		if d.Hub != nil {
			wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)
			r.Get("/ws", wsHandler.Serve)
		}

		r.Get("/status", statusHandler.Get)
		r.Get("/events", eventHandler.GetRecent)

		r.Route("/configs", func(r chi.Router) {
			r.Get("/", configHandler.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", configHandler.Get)
				r.Put("/", configHandler.Update)
				r.Post("/snapshot", configHandler.Snapshot)
				r.Get("/backups", backupHandler.GetAllForConfig)
				r.Get("/backups/{backupId}", backupHandler.Get)
				r.Delete("/backups/{backupId}", backupHandler.DeleteForConfig)
			})
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", backupHandler.GetAll)
			r.Post("/restore", backupHandler.Restore)
			r.Post("/delete", backupHandler.Delete)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", serviceHandler.List)
			r.Post("/{name}/restart", serviceHandler.Restart)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", scheduleHandler.GetAll)
			r.Post("/", scheduleHandler.Create)
			r.Put("/{scheduleId}", scheduleHandler.Update)
			r.Delete("/{scheduleId}", scheduleHandler.Delete)
		})
	})

	return r
}
