package services

import (
	"context"
	"testing"

	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRequester struct {
	accept  bool
	reason  string
	targets []string
}

func (s *stubRequester) Method() string { return "stub" }

func (s *stubRequester) RequestRestart(_ context.Context, target string) restarter.Outcome {
	s.targets = append(s.targets, target)
	return restarter.Outcome{Target: target, Method: "stub", Accepted: s.accept, Reason: s.reason}
}

func TestRestartServiceAccepted(t *testing.T) {
	events := &fakeEvents{}
	req := &stubRequester{accept: true}
	svc := NewRestartService(events)
	svc.Register("tacacs", req, "tacacs_plus")

	outcome, err := svc.RequestRestart(context.Background(), "tacacs")
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, []string{"tacacs_plus"}, req.targets)
	assert.Equal(t, []string{"service.restart"}, events.types())
}

func TestRestartServiceRejected(t *testing.T) {
	events := &fakeEvents{}
	svc := NewRestartService(events)
	svc.Register("freeradius", &stubRequester{reason: "unit not loaded"}, "freeradius")

	outcome, err := svc.RequestRestart(context.Background(), "freeradius")
	assert.ErrorIs(t, err, ErrRestartFailed)
	assert.False(t, outcome.Accepted)
	assert.Contains(t, err.Error(), "unit not loaded")
	assert.Equal(t, []string{"service.restart.fail"}, events.types())
}

func TestRestartServiceLogsEventFailure(t *testing.T) {
	logs := captureLog(t)
	svc := NewRestartService(brokenEvents{})
	svc.Register("tacacs", &stubRequester{accept: true}, "tacacs_plus")

	outcome, err := svc.RequestRestart(context.Background(), "tacacs")
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Contains(t, logs.String(), "Failed to record event")
	assert.Contains(t, logs.String(), "service.restart")
}

func TestRestartServiceUnknown(t *testing.T) {
	svc := NewRestartService(nil)
	_, err := svc.RequestRestart(context.Background(), "nginx")
	assert.ErrorIs(t, err, ErrUnknownConfig)
}

func TestRestartServiceRegisterReplaces(t *testing.T) {
	svc := NewRestartService(nil)
	first := &stubRequester{accept: true}
	second := &stubRequester{accept: true}
	svc.Register("tacacs", first, "a")
	svc.Register("freeradius", first, "b")
	svc.Register("tacacs", second, "c")

	assert.Equal(t, []string{"tacacs", "freeradius"}, svc.Services())
	_, err := svc.RequestRestart(context.Background(), "tacacs")
	require.NoError(t, err)
	assert.Empty(t, first.targets)
	assert.Equal(t, []string{"c"}, second.targets)
}
