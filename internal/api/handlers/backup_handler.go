package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/restarter"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/go-chi/chi/v5"
)

// BackupHandler handles HTTP requests related to backups.
type BackupHandler struct {
	configs  services.ConfigServiceProvider
	restores services.RestoreServiceProvider
	restarts services.RestartServiceProvider
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(configs services.ConfigServiceProvider, restores services.RestoreServiceProvider, restarts services.RestartServiceProvider) *BackupHandler {
	return &BackupHandler{configs: configs, restores: restores, restarts: restarts}
}

// BackupRefPayload names a backup by identifier; the owning config is
// inferred from its prefix.
type BackupRefPayload struct {
	Identifier string `json:"identifier"`
	Restart    bool   `json:"restart"`
}

// RestoreResult is returned after a restore.
type RestoreResult struct {
	Backup  models.Backup      `json:"backup"`
	Restart *restarter.Outcome `json:"restart,omitempty"`
}

// GetAll handles the request to list the backups of every config, newest first.
func (h *BackupHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	backups, err := h.configs.ListAllBackups()
	if err != nil {
		writeFailure(w, err, "Failed to retrieve backups")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// GetAllForConfig handles the request to list the backups of one config, newest first.
func (h *BackupHandler) GetAllForConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	backups, err := h.configs.ListBackups(name)
	if err != nil {
		writeFailure(w, err, "Failed to retrieve backups for config")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Get handles the request to read the content of a backup.
func (h *BackupHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	backupID := chi.URLParam(r, "backupId")
	content, err := h.configs.ReadBackup(name, backupID)
	if err != nil {
		writeFailure(w, err, "Failed to read backup")
		return
	}
	writeJSON(w, http.StatusOK, models.ConfigContent{Name: backupID, Content: string(content)})
}

// Restore handles the request to restore a backup onto the config its identifier names.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var payload BackupRefPayload
	if err := decode(r, &payload); err != nil || payload.Identifier == "" {
		writeJSON(w, http.StatusNotFound, Outcome{Success: false, Message: "Backup file not found."})
		return
	}

	backup, err := h.restores.RestoreByIdentifier(payload.Identifier)
	if err != nil {
		writeFailure(w, err, "Failed to restore backup")
		return
	}

	result := RestoreResult{Backup: backup}
	message := fmt.Sprintf("Restored backup: %s", backup.ID)
	if payload.Restart {
		outcome, restartMsg := requestRestart(r.Context(), h.restarts, backup.Config)
		result.Restart = &outcome
		message += ". " + restartMsg
	}
	writeSuccess(w, http.StatusOK, message, result)
}

// Delete handles the request to delete a backup named by identifier.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var payload BackupRefPayload
	if err := decode(r, &payload); err != nil || payload.Identifier == "" {
		writeJSON(w, http.StatusNotFound, Outcome{Success: false, Message: "Backup file not found."})
		return
	}

	if _, err := h.configs.DeleteBackup(payload.Identifier); err != nil {
		writeFailure(w, err, "Failed to delete backup")
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("Deleted backup: %s", filepath.Base(payload.Identifier)), nil)
}

// DeleteForConfig handles the request to delete a backup of a named config.
func (h *BackupHandler) DeleteForConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	backupID := chi.URLParam(r, "backupId")
	if err := h.configs.DeleteConfigBackup(name, backupID); err != nil {
		writeFailure(w, err, "Failed to delete backup")
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("Deleted backup: %s", backupID), nil)
}
