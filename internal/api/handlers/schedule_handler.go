package handlers

import (
	"fmt"
	"net/http"

	"github.com/cjk303/tacacs-viewer/internal/models"
	"github.com/cjk303/tacacs-viewer/internal/services"
	"github.com/go-chi/chi/v5"
)

// ScheduleHandler handles HTTP requests related to backup and restart schedules.
type ScheduleHandler struct {
	service services.ScheduleServiceProvider
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service services.ScheduleServiceProvider) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// GetAll handles the request to list every schedule.
func (h *ScheduleHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.service.GetSchedules()
	if err != nil {
		writeFailure(w, err, "Failed to retrieve schedules")
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Create handles the request to create a new schedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var schedule models.Schedule
	if err := decode(r, &schedule); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.CreateSchedule(schedule)
	if err != nil {
		writeFailure(w, err, "Failed to create schedule")
		return
	}
	writeSuccess(w, http.StatusCreated, fmt.Sprintf("Schedule '%s' created.", created.Name), created)
}

// Update handles the request to update an existing schedule.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")
	var schedule models.Schedule
	if err := decode(r, &schedule); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateSchedule(scheduleID, schedule)
	if err != nil {
		writeFailure(w, err, "Failed to update schedule")
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("Schedule '%s' updated.", updated.Name), updated)
}

// Delete handles the request to delete a schedule.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")
	if err := h.service.DeleteSchedule(scheduleID); err != nil {
		writeFailure(w, err, "Failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
