package monitoring

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (f *fakeEvents) CreateEvent(eventType, level, message string, config *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, eventType)
	return f.err
}

func (f *fakeEvents) GetRecentEvents(limit int) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEvents) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.types...)
}

type runTimes struct {
	last, next time.Time
}

type fakeSchedules struct {
	services.ScheduleServiceProvider
	active  []models.Schedule
	updated map[string]runTimes
}

func (f *fakeSchedules) GetAllActiveSchedules() ([]models.Schedule, error) {
	return f.active, nil
}

func (f *fakeSchedules) UpdateScheduleRunTimes(id string, lastRun, nextRun time.Time) error {
	if f.updated == nil {
		f.updated = make(map[string]runTimes)
	}
	f.updated[id] = runTimes{last: lastRun, next: nextRun}
	return nil
}

// newTrackedConfigs registers a tacacs config with a noop restart.
func newTrackedConfigs(t *testing.T, events services.EventServiceProvider) (*services.ConfigService, *services.RestartService) {
	t.Helper()
	root := t.TempDir()
	live := filepath.Join(root, "tacacs.conf")
	require.NoError(t, os.WriteFile(live, []byte("group=admin\n"), 0o644))

	store := services.NewBackupStore("tacacs", filepath.Join(root, "backups"), "tacacs.conf")
	configs, err := services.NewConfigService([]*services.ConfigFile{services.NewConfigFile("tacacs", live, store)}, events)
	require.NoError(t, err)

	restarts := services.NewRestartService(events)
	restarts.Register("tacacs", restarter.Noop{}, "tacacs_plus")
	return configs, restarts
}
