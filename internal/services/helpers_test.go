package services

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

// clock hands out a fixed time that tests advance by hand.
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)}
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recordedEvent struct {
	Type    string
	Level   string
	Message string
	Config  string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) CreateEvent(eventType, level, message string, config *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := recordedEvent{Type: eventType, Level: level, Message: message}
	if config != nil {
		e.Config = *config
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) GetRecentEvents(limit int) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// brokenEvents fails every insert, like an event store whose database went away.
type brokenEvents struct{}

func (brokenEvents) CreateEvent(eventType, level, message string, config *string) error {
	return errors.New("database is locked")
}

func (brokenEvents) GetRecentEvents(limit int) ([]models.Event, error) {
	return nil, errors.New("database is locked")
}

// captureLog sends the global logger to a buffer at debug level until the test ends.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

// fixture is a tacacs and a freeradius config sharing one backup directory.
type fixture struct {
	backupDir string
	tacacs    *ConfigFile
	radius    *ConfigFile
	clock     *clock
	events    *fakeEvents
	service   *ConfigService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	backupDir := filepath.Join(root, "backups")
	clk := newClock()

	tacacsPath := filepath.Join(root, "tacacs.conf")
	radiusPath := filepath.Join(root, "clients.conf")
	writeFile(t, tacacsPath, "group=admin\n")
	writeFile(t, radiusPath, "client 10.0.0.1 {\n}\n")

	tacacsStore := NewBackupStore("tacacs", backupDir, "tacacs.conf")
	tacacsStore.now = clk.Now
	radiusStore := NewBackupStore("freeradius", backupDir, "freeradius.clients.conf")
	radiusStore.now = clk.Now

	f := &fixture{
		backupDir: backupDir,
		tacacs:    NewConfigFile("tacacs", tacacsPath, tacacsStore),
		radius:    NewConfigFile("freeradius", radiusPath, radiusStore),
		clock:     clk,
		events:    &fakeEvents{},
	}
	svc, err := NewConfigService([]*ConfigFile{f.tacacs, f.radius}, f.events)
	require.NoError(t, err)
	f.service = svc
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Ids no real account uses; only root can hand files to them.
const (
	foreignUID = 4321
	foreignGID = 4321
)

// chownForeign gives path a foreign owner and group, skipping the test when not run as root.
func chownForeign(t *testing.T, path string) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("changing file ownership needs root")
	}
	require.NoError(t, os.Chown(path, foreignUID, foreignGID))
}

func requireOwner(t *testing.T, path string, uid, gid int) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	gotUID, gotGID, ok := fileOwner(info)
	if !ok {
		t.Skip("file ownership is not reported on this platform")
	}
	require.Equal(t, uid, gotUID, "uid of %s", path)
	require.Equal(t, gid, gotGID, "gid of %s", path)
}
