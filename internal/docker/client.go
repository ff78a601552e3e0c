package docker

import (
	"context"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Client wraps the official Docker client to provide specific functionalities.
type Client struct {
	cli *client.Client
}

// New creates a new Docker client wrapper configured from the environment
// (DOCKER_HOST, DOCKER_API_VERSION, ...).
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Client{cli: cli}, nil
}

// Ping checks that the Docker daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// RestartContainer restarts a container by its name or ID, using the
// container's own stop timeout.
func (c *Client) RestartContainer(ctx context.Context, id string) error {
	return c.cli.ContainerRestart(ctx, id, container.StopOptions{})
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.cli.Close()
}
