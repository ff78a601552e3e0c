// Package restarter issues fire-and-forget restart requests to the mechanism
// that supervises a dependent service. A request is accepted when the
// mechanism accepted the command; whether the service came back healthy is
// not checked.
package restarter

import (
	"context"
	"fmt"
)

// Supported restart methods.
const (
	MethodDocker  = "docker"
	MethodSystemd = "systemd"
	MethodNoop    = "noop"
)

// Outcome reports whether a restart request was accepted.
type Outcome struct {
	Target   string `json:"target"`
	Method   string `json:"method"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Requester restarts the unit, container or process named by target.
type Requester interface {
	Method() string
	RequestRestart(ctx context.Context, target string) Outcome
}

func accepted(method, target string) Outcome {
	return Outcome{Target: target, Method: method, Accepted: true}
}

func failed(method, target, reason string) Outcome {
	return Outcome{Target: target, Method: method, Accepted: false, Reason: reason}
}

// New builds the requester for method. containers is only used by the docker
// method and may be nil otherwise.
func New(method string, containers ContainerRestarter) (Requester, error) {
	switch method {
	case MethodDocker:
		if containers == nil {
			return nil, fmt.Errorf("restart method %q needs a docker client", method)
		}
		return NewDocker(containers), nil
	case MethodSystemd:
		return NewSystemd(), nil
	case MethodNoop:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown restart method %q", method)
	}
}
