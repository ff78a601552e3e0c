package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cjk303/tacacs-viewer/internal/api/handlers"
	"github.com/cjk303/tacacs-viewer/internal/database"
	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router     http.Handler
	tacacsPath string
	radiusPath string
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	root := t.TempDir()
	backupDir := filepath.Join(root, "backups")
	env := &testEnv{
		tacacsPath: filepath.Join(root, "tacacs.conf"),
		radiusPath: filepath.Join(root, "clients.conf"),
	}
	require.NoError(t, os.WriteFile(env.tacacsPath, []byte("group=admin\n"), 0o644))
	require.NoError(t, os.WriteFile(env.radiusPath, []byte("client 10.0.0.1 {\n}\n"), 0o644))

	db, err := database.New(filepath.Join(root, "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	events := services.NewEventService(db, nil)
	configs, err := services.NewConfigService([]*services.ConfigFile{
		services.NewConfigFile("tacacs", env.tacacsPath, services.NewBackupStore("tacacs", backupDir, "tacacs.conf")),
		services.NewConfigFile("freeradius", env.radiusPath, services.NewBackupStore("freeradius", backupDir, "freeradius.clients.conf")),
	}, events)
	require.NoError(t, err)

	restarts := services.NewRestartService(events)
	restarts.Register("tacacs", restarter.Noop{}, "tacacs_plus")
	restarts.Register("freeradius", restarter.NewSystemdWithRunner(func(_ context.Context, _ string, _ ...string) (string, string, int) {
		return "", "Unit freeradius.service not found.", 5
	}), "freeradius")

	deps := Deps{
		Configs:        configs,
		Restores:       services.NewRestoreService(configs, events),
		Restarts:       restarts,
		Events:         events,
		Schedules:      services.NewScheduleService(db, configs, events),
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.router = NewRouter(deps)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeOutcome(t *testing.T, rec *httptest.ResponseRecorder) handlers.Outcome {
	t.Helper()
	var out handlers.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSaveConfigThenRestoreBackup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/configs/tacacs", map[string]interface{}{"content": "group=admin\ngroup=readonly\n"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeOutcome(t, rec).Success)

	rec = env.do(t, http.MethodGet, "/api/v1/configs/tacacs/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var backups []models.Backup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &backups))
	require.Len(t, backups, 1)

	rec = env.do(t, http.MethodPost, "/api/v1/backups/restore", map[string]interface{}{"identifier": backups[0].ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeOutcome(t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, "Restored backup: "+backups[0].ID, out.Message)

	rec = env.do(t, http.MethodGet, "/api/v1/configs/tacacs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var content models.ConfigContent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.Equal(t, "group=admin\n", content.Content)
}

func TestRestoreErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/backups/restore", map[string]interface{}{"identifier": "tacacs.conf.bak.20240101000000"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handlers.Outcome{Success: false, Message: "Backup file not found."}, decodeOutcome(t, rec))

	rec = env.do(t, http.MethodPost, "/api/v1/backups/restore", map[string]interface{}{"identifier": "/etc/shadow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid backup file.", decodeOutcome(t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/v1/backups/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBackupTwice(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/configs/freeradius/snapshot", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeOutcome(t, rec).Data.(map[string]interface{})
	id := created["id"].(string)

	rec = env.do(t, http.MethodPost, "/api/v1/backups/delete", map[string]interface{}{"identifier": id})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/configs/freeradius/backups/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownConfig(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/configs/nginx", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `Unknown configuration "nginx".`, decodeOutcome(t, rec).Message)
}

func TestSaveConfigRejectsMissingContent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/configs/tacacs", map[string]interface{}{"restart": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	b, err := os.ReadFile(env.tacacsPath)
	require.NoError(t, err)
	assert.Equal(t, "group=admin\n", string(b))
}

func TestSaveConfigWithFailedRestartStillSaves(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/configs/freeradius", map[string]interface{}{"content": "client 10.0.0.9 {\n}\n", "restart": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeOutcome(t, rec)
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "Error restarting freeradius")

	b, err := os.ReadFile(env.radiusPath)
	require.NoError(t, err)
	assert.Equal(t, "client 10.0.0.9 {\n}\n", string(b))
}

func TestRestartService(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/services/tacacs/restart", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/services/freeradius/restart", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, decodeOutcome(t, rec).Success)

	rec = env.do(t, http.MethodPost, "/api/v1/services/nginx/restart", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedulesAndEvents(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"config": "tacacs", "name": "nightly", "cronExpression": "0 3 * * *", "taskType": "backup", "isActive": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"config": "tacacs", "name": "broken", "cronExpression": "whenever", "taskType": "backup",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/schedules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var schedules []models.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schedules))
	require.Len(t, schedules, 1)

	rec = env.do(t, http.MethodDelete, "/api/v1/schedules/"+schedules[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/schedules/"+schedules[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/events?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "schedule.delete", events[0].Type)
	assert.Equal(t, "schedule.create", events[1].Type)
}

func TestStatusCountsBackups(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/configs/tacacs/snapshot", nil)

	rec := env.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, map[string]int{"tacacs": 1, "freeradius": 0}, status.BackupCounts)
	assert.Nil(t, status.Disk)
	assert.Nil(t, status.Docker)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestStatusReportsDockerReachability(t *testing.T) {
	cases := []struct {
		name   string
		pinger fakePinger
		want   models.DockerStatus
	}{
		{"reachable", fakePinger{}, models.DockerStatus{Reachable: true}},
		{"unreachable", fakePinger{err: errors.New("Cannot connect to the Docker daemon")},
			models.DockerStatus{Error: "Cannot connect to the Docker daemon"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(d *Deps) { d.Docker = tc.pinger })

			rec := env.do(t, http.MethodGet, "/api/v1/status", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var status models.Status
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			require.NotNil(t, status.Docker)
			assert.Equal(t, tc.want, *status.Docker)
		})
	}
}
