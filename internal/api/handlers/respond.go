package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome is the body returned for every mutating request. Message is meant
// to be shown to the operator as-is.
type Outcome struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Outcome{Success: true, Message: message, Data: data})
}

// writeFailure logs err and answers with the status and message for its kind.
func writeFailure(w http.ResponseWriter, err error, logMsg string) {
	status := statusFor(err)
	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = log.Error()
	} else {
		event = log.Warn()
	}
	event.Err(err).Int("status", status).Msg(logMsg)
	writeJSON(w, status, Outcome{Success: false, Message: services.Reason(err)})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Outcome{Success: false, Message: message})
}

func statusFor(err error) int {
	switch services.Kind(err) {
	case services.ErrNotFound, services.ErrUnknownConfig:
		return http.StatusNotFound
	case services.ErrInvalidBackupReference, services.ErrInvalidContent:
		return http.StatusBadRequest
	case services.ErrRestartFailed:
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, services.ErrScheduleNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidSchedule):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
