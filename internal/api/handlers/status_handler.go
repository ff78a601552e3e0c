package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/services"
)

// DiskStatusProvider reports the last disk usage sample of the backup volume.
type DiskStatusProvider interface {
	Status() *models.DiskStatus
}

// DaemonPinger checks that the container daemon answers.
type DaemonPinger interface {
	Ping(ctx context.Context) error
}

const dockerPingTimeout = 2 * time.Second

// StatusHandler reports the health of the backup directory.
type StatusHandler struct {
	configs services.ConfigServiceProvider
	disk    DiskStatusProvider
	docker  DaemonPinger
}

// NewStatusHandler creates a new StatusHandler. disk and docker may be nil.
func NewStatusHandler(configs services.ConfigServiceProvider, disk DiskStatusProvider, docker DaemonPinger) *StatusHandler {
	return &StatusHandler{configs: configs, disk: disk, docker: docker}
}

// Get handles the request for the current status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	all, err := h.configs.ListAllBackups()
	if err != nil {
		writeFailure(w, err, "Failed to count backups")
		return
	}

	status := models.Status{BackupCounts: make(map[string]int, len(all))}
	for name, backups := range all {
		status.BackupCounts[name] = len(backups)
	}
	if h.disk != nil {
		status.Disk = h.disk.Status()
	}
	if h.docker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), dockerPingTimeout)
		defer cancel()
		status.Docker = &models.DockerStatus{Reachable: true}
		if err := h.docker.Ping(ctx); err != nil {
			status.Docker = &models.DockerStatus{Error: err.Error()}
		}
	}
	writeJSON(w, http.StatusOK, status)
}
