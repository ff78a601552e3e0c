package restarter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContainers struct {
	err       error
	restarted []string
}

func (f *fakeContainers) RestartContainer(_ context.Context, id string) error {
	f.restarted = append(f.restarted, id)
	return f.err
}

func TestDockerRestart(t *testing.T) {
	containers := &fakeContainers{}
	outcome := NewDocker(containers).RequestRestart(context.Background(), "tacacs_plus")

	assert.True(t, outcome.Accepted)
	assert.Equal(t, MethodDocker, outcome.Method)
	assert.Equal(t, []string{"tacacs_plus"}, containers.restarted)
}

func TestDockerRestartFailure(t *testing.T) {
	containers := &fakeContainers{err: errors.New("No such container: tacacs_plus")}
	outcome := NewDocker(containers).RequestRestart(context.Background(), "tacacs_plus")

	assert.False(t, outcome.Accepted)
	assert.Equal(t, "No such container: tacacs_plus", outcome.Reason)
}

func TestSystemdRestart(t *testing.T) {
	var calls [][]string
	run := func(_ context.Context, name string, args ...string) (string, string, int) {
		calls = append(calls, append([]string{name}, args...))
		return "", "", 0
	}

	outcome := NewSystemdWithRunner(run).RequestRestart(context.Background(), "freeradius")
	assert.True(t, outcome.Accepted)
	assert.Equal(t, [][]string{{"systemctl", "restart", "freeradius"}}, calls)
}

func TestSystemdRestartNonZeroExit(t *testing.T) {
	run := func(context.Context, string, ...string) (string, string, int) {
		return "", "Failed to restart freeradius.service: Unit not found.\n", 5
	}

	outcome := NewSystemdWithRunner(run).RequestRestart(context.Background(), "freeradius")
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "systemctl restart failed (exit 5): Failed to restart freeradius.service: Unit not found.", outcome.Reason)
}

func TestSystemdRejectsFlagLikeUnits(t *testing.T) {
	called := false
	run := func(context.Context, string, ...string) (string, string, int) {
		called = true
		return "", "", 0
	}
	s := NewSystemdWithRunner(run)

	for _, unit := range []string{"", "  ", "--force"} {
		outcome := s.RequestRestart(context.Background(), unit)
		assert.False(t, outcome.Accepted, unit)
	}
	assert.False(t, called)
}

func TestNoop(t *testing.T) {
	outcome := Noop{}.RequestRestart(context.Background(), "anything")
	assert.True(t, outcome.Accepted)
	assert.Equal(t, MethodNoop, outcome.Method)
}

func TestNew(t *testing.T) {
	r, err := New(MethodSystemd, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodSystemd, r.Method())

	r, err = New(MethodNoop, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodNoop, r.Method())

	r, err = New(MethodDocker, &fakeContainers{})
	require.NoError(t, err)
	assert.Equal(t, MethodDocker, r.Method())

	_, err = New(MethodDocker, nil)
	assert.Error(t, err)

	_, err = New("supervisord", nil)
	assert.Error(t, err)
}
