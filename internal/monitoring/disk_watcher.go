package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	diskCheckInterval = 5 * time.Minute
	diskAlertCooldown = 1 * time.Hour
)

// UsageFunc reports filesystem usage for path.
type UsageFunc func(path string) (*disk.UsageStat, error)

// DiskWatcher periodically checks free space on the filesystem holding the
// backup directory. A full disk makes every write fail at the snapshot step,
// so operators are warned before that happens.
type DiskWatcher struct {
	path      string
	threshold float64
	eventSvc  services.EventServiceProvider
	usage     UsageFunc
	now       func() time.Time

	mu        sync.RWMutex
	last      *models.DiskStatus
	lastAlert time.Time

	done chan struct{}
}

// NewDiskWatcher creates a watcher alerting when usage of path exceeds threshold percent.
func NewDiskWatcher(path string, threshold float64, eventSvc services.EventServiceProvider) *DiskWatcher {
	return &DiskWatcher{
		path:      path,
		threshold: threshold,
		eventSvc:  eventSvc,
		usage:     disk.Usage,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Run starts the periodic checks.
func (w *DiskWatcher) Run() {
	log.Info().Str("path", w.path).Float64("threshold", w.threshold).Msg("Starting backup disk watcher...")
	ticker := time.NewTicker(diskCheckInterval)
	defer ticker.Stop()

	w.check()
	for {
		select {
		case <-w.done:
			log.Info().Msg("Stopping backup disk watcher.")
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// Stop halts the periodic checks.
func (w *DiskWatcher) Stop() {
	close(w.done)
}

// Status returns the last reading, or nil before the first check.
func (w *DiskWatcher) Status() *models.DiskStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return nil
	}
	status := *w.last
	return &status
}

func (w *DiskWatcher) check() {
	stat, err := w.usage(w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("DiskWatcher: Could not read disk usage")
		return
	}

	now := w.now()
	w.mu.Lock()
	w.last = &models.DiskStatus{
		Path:        w.path,
		Total:       stat.Total,
		Free:        stat.Free,
		UsedPercent: stat.UsedPercent,
		CheckedAt:   now,
	}
	alert := stat.UsedPercent > w.threshold && now.Sub(w.lastAlert) >= diskAlertCooldown
	if alert {
		w.lastAlert = now
	}
	w.mu.Unlock()

	if alert {
		msg := fmt.Sprintf("Backup directory %s is %.1f%% full; config saves will fail once it is full.", w.path, stat.UsedPercent)
		log.Warn().Str("path", w.path).Float64("used_percent", stat.UsedPercent).Msg("DiskWatcher: Backup disk nearly full")
		if err := w.eventSvc.CreateEvent("system.alert.disk", "warn", msg, nil); err != nil {
			log.Warn().Err(err).Msg("DiskWatcher: Failed to record alert")
		}
	}
}
