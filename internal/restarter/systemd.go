package restarter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// CommandRunner runs name with args and reports its output and exit code.
// A command that could not be started reports code 1 with the start error as stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr string, code int)

// Systemd restarts a system unit with systemctl.
type Systemd struct {
	run CommandRunner
}

// NewSystemd creates a Systemd requester that shells out to systemctl.
func NewSystemd() *Systemd {
	return &Systemd{run: execCommand}
}

// NewSystemdWithRunner creates a Systemd requester using run instead of os/exec.
func NewSystemdWithRunner(run CommandRunner) *Systemd {
	return &Systemd{run: run}
}

// Method returns "systemd".
func (s *Systemd) Method() string { return MethodSystemd }

// RequestRestart runs `systemctl restart <target>`.
func (s *Systemd) RequestRestart(ctx context.Context, target string) Outcome {
	unit := strings.TrimSpace(target)
	if unit == "" || strings.HasPrefix(unit, "-") {
		return failed(MethodSystemd, target, fmt.Sprintf("invalid unit name %q", target))
	}

	log.Info().Str("unit", unit).Msg("Restarting systemd unit")
	_, stderr, code := s.run(ctx, "systemctl", "restart", unit)
	if code != 0 {
		reason := fmt.Sprintf("systemctl restart failed (exit %d): %s", code, strings.TrimSpace(stderr))
		log.Error().Str("unit", unit).Int("exit_code", code).Str("stderr", strings.TrimSpace(stderr)).Msg("Systemd restart failed")
		return failed(MethodSystemd, target, reason)
	}
	return accepted(MethodSystemd, target)
}

func execCommand(ctx context.Context, name string, args ...string) (stdout, stderr string, code int) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
		if stderr == "" {
			stderr = err.Error()
		}
	}
	return
}
