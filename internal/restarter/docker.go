package restarter

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ContainerRestarter is the slice of the docker client the Docker requester needs.
type ContainerRestarter interface {
	RestartContainer(ctx context.Context, id string) error
}

// Docker restarts a container through the Docker Engine API.
type Docker struct {
	containers ContainerRestarter
}

// NewDocker creates a Docker requester.
func NewDocker(containers ContainerRestarter) *Docker {
	return &Docker{containers: containers}
}

// Method returns "docker".
func (d *Docker) Method() string { return MethodDocker }

// RequestRestart restarts the container named target.
func (d *Docker) RequestRestart(ctx context.Context, target string) Outcome {
	log.Info().Str("container", target).Msg("Restarting container")
	if err := d.containers.RestartContainer(ctx, target); err != nil {
		log.Error().Err(err).Str("container", target).Msg("Container restart failed")
		return failed(MethodDocker, target, err.Error())
	}
	return accepted(MethodDocker, target)
}
