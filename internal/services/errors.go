package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the config and backup services. Callers match them
// with errors.Is; the underlying OS error stays reachable through the same chain.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidBackupReference = errors.New("invalid backup reference")
	ErrBackupWriteFailed      = errors.New("backup write failed")
	ErrReadFailed             = errors.New("read failed")
	ErrWriteFailed            = errors.New("write failed")
	ErrDeleteFailed           = errors.New("delete failed")
	ErrUnknownConfig          = errors.New("unknown config")
	ErrRestartFailed          = errors.New("restart failed")
	ErrInvalidContent         = errors.New("invalid content")
)

var kinds = []error{
	ErrNotFound,
	ErrInvalidBackupReference,
	ErrBackupWriteFailed,
	ErrReadFailed,
	ErrWriteFailed,
	ErrDeleteFailed,
	ErrUnknownConfig,
	ErrRestartFailed,
	ErrInvalidContent,
}

// OpError describes a failed operation on a tracked config or one of its backups.
type OpError struct {
	Op     string // e.g. "snapshot", "restore", "delete"
	Config string // logical config name, if known
	Ref    string // backup identifier or live path involved
	Kind   error  // one of the Err* kinds above
	Err    error  // underlying cause, may be nil
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Config != "" {
		msg += " " + e.Config
	}
	if e.Ref != "" {
		msg += " " + e.Ref
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause so errors.Is works against either.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op, config, ref string, kind, cause error) *OpError {
	return &OpError{Op: op, Config: config, Ref: ref, Kind: kind, Err: cause}
}

// Kind returns the error kind carried by err, or nil if err carries none.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Reason renders err as a short message suitable for showing to an operator.
func Reason(err error) string {
	switch Kind(err) {
	case ErrNotFound:
		var opErr *OpError
		if errors.As(err, &opErr) && (opErr.Op == "read" || opErr.Op == "write") {
			return "Configuration file not found."
		}
		return "Backup file not found."
	case ErrInvalidBackupReference:
		return "Invalid backup file."
	case ErrUnknownConfig:
		var opErr *OpError
		if errors.As(err, &opErr) && opErr.Config != "" {
			return fmt.Sprintf("Unknown configuration %q.", opErr.Config)
		}
		return "Unknown configuration."
	}
	return err.Error()
}
