package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/go-chi/chi/v5"
)

// ServiceHandler handles restart requests for the managed daemons.
type ServiceHandler struct {
	restarts services.RestartServiceProvider
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(restarts services.RestartServiceProvider) *ServiceHandler {
	return &ServiceHandler{restarts: restarts}
}

// List handles the request to name every service that can be restarted.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.restarts.Services())
}

// Restart handles the request to restart one service.
func (h *ServiceHandler) Restart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx, cancel := context.WithTimeout(r.Context(), restartTimeout)
	defer cancel()

	outcome, err := h.restarts.RequestRestart(ctx, name)
	if err != nil {
		writeFailure(w, err, "Failed to restart service")
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("%s restart requested.", name), outcome)
}
