package restarter

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Noop accepts every request without doing anything. Useful when the service
// picks up config changes on its own, and in development.
type Noop struct{}

// Method returns "noop".
func (Noop) Method() string { return MethodNoop }

// RequestRestart logs the request and accepts it.
func (Noop) RequestRestart(_ context.Context, target string) Outcome {
	log.Info().Str("target", target).Msg("Restart requested (noop)")
	return accepted(MethodNoop, target)
}
