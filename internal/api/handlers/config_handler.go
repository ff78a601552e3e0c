package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const restartTimeout = 2 * time.Minute

// ConfigHandler handles HTTP requests for the live config files.
type ConfigHandler struct {
	configs  services.ConfigServiceProvider
	restarts services.RestartServiceProvider
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configs services.ConfigServiceProvider, restarts services.RestartServiceProvider) *ConfigHandler {
	return &ConfigHandler{configs: configs, restarts: restarts}
}

// WriteConfigPayload is the expected JSON body for saving a config.
type WriteConfigPayload struct {
	Content *string `json:"content"`
	Restart bool    `json:"restart"`
}

// WriteResult is returned after a save.
type WriteResult struct {
	Backup  models.Backup      `json:"backup"`
	Restart *restarter.Outcome `json:"restart,omitempty"`
}

// List handles the request to describe every tracked config.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.configs.Files())
}

// Get handles the request to read a live config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	content, err := h.configs.Read(name)
	if err != nil {
		writeFailure(w, err, "Failed to read config")
		return
	}
	writeJSON(w, http.StatusOK, models.ConfigContent{Name: name, Content: string(content)})
}

// Update handles the request to save a live config. The previous content is
// always backed up first; a restart is requested only when asked for.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var payload WriteConfigPayload
	if err := decode(r, &payload); err != nil || payload.Content == nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	backup, err := h.configs.Write(name, []byte(*payload.Content))
	if err != nil {
		writeFailure(w, err, "Failed to save config")
		return
	}

	result := WriteResult{Backup: backup}
	message := fmt.Sprintf("Config '%s' saved with backup.", name)
	if payload.Restart {
		outcome, restartMsg := requestRestart(r.Context(), h.restarts, name)
		result.Restart = &outcome
		message += " " + restartMsg
	}
	writeSuccess(w, http.StatusOK, message, result)
}

// Snapshot handles the request to back up a live config without changing it.
func (h *ConfigHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	backup, err := h.configs.Snapshot(name)
	if err != nil {
		writeFailure(w, err, "Failed to snapshot config")
		return
	}
	writeSuccess(w, http.StatusCreated, fmt.Sprintf("Created backup: %s", backup.ID), backup)
}

// requestRestart asks for a restart after a change that has already been
// applied, so a rejected restart is reported without failing the request.
func requestRestart(ctx context.Context, restarts services.RestartServiceProvider, service string) (restarter.Outcome, string) {
	ctx, cancel := context.WithTimeout(ctx, restartTimeout)
	defer cancel()

	outcome, err := restarts.RequestRestart(ctx, service)
	if err != nil {
		log.Error().Err(err).Str("service", service).Msg("Restart after change failed")
		return outcome, fmt.Sprintf("Error restarting %s: %s", service, services.Reason(err))
	}
	return outcome, fmt.Sprintf("%s restart requested.", service)
}
