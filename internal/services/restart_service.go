package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/rs/zerolog/log"
)

// RestartServiceProvider defines the interface for restart services.
type RestartServiceProvider interface {
	Services() []string
	RequestRestart(ctx context.Context, service string) (restarter.Outcome, error)
}

type restartBinding struct {
	requester restarter.Requester
	target    string
}

// RestartService maps each logical service to the mechanism and target
// (container, unit) that restarts it.
type RestartService struct {
	bindings     map[string]restartBinding
	order        []string
	eventService EventServiceProvider
}

// NewRestartService creates a new RestartService with no services bound.
func NewRestartService(eventService EventServiceProvider) *RestartService {
	return &RestartService{
		bindings:     make(map[string]restartBinding),
		eventService: eventService,
	}
}

// Register binds service to requester and target, replacing any earlier binding.
func (s *RestartService) Register(service string, requester restarter.Requester, target string) {
	if _, exists := s.bindings[service]; !exists {
		s.order = append(s.order, service)
	}
	s.bindings[service] = restartBinding{requester: requester, target: target}
}

// Services returns the registered service names in registration order.
func (s *RestartService) Services() []string {
	services := make([]string, len(s.order))
	copy(services, s.order)
	return services
}

// RequestRestart asks the mechanism bound to service to restart it. A rejected
// request returns the outcome together with an ErrRestartFailed error.
func (s *RestartService) RequestRestart(ctx context.Context, service string) (restarter.Outcome, error) {
	binding, ok := s.bindings[service]
	if !ok {
		return restarter.Outcome{}, opError("restart", service, "", ErrUnknownConfig, nil)
	}

	outcome := binding.requester.RequestRestart(ctx, binding.target)
	if !outcome.Accepted {
		s.recordEvent("service.restart.fail", "error", fmt.Sprintf("Error restarting %s: %s", service, outcome.Reason), service)
		return outcome, opError("restart", service, binding.target, ErrRestartFailed, errors.New(outcome.Reason))
	}

	s.recordEvent("service.restart", "info", fmt.Sprintf("Restart of %s requested via %s (%s).", service, outcome.Method, binding.target), service)
	return outcome, nil
}

func (s *RestartService) recordEvent(eventType, level, message, service string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(eventType, level, message, &service); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
