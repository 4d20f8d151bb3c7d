package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/appointment"
	"github.com/queueline/queueline/internal/scheduling"
	"github.com/queueline/queueline/internal/tenancy"
	"github.com/queueline/queueline/pkg/logging"
)

// SchedulingHandler exposes the booking flow over HTTP.
type SchedulingHandler struct {
	engine *scheduling.Engine
	logger *logging.Logger
}

// NewSchedulingHandler creates a scheduling handler.
func NewSchedulingHandler(engine *scheduling.Engine, logger *logging.Logger) *SchedulingHandler {
	return &SchedulingHandler{engine: engine, logger: logger}
}

// Book handles POST /appointments requests.
func (h *SchedulingHandler) Book(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req scheduling.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.OrgID = orgID

	appt, err := h.engine.BookAppointment(r.Context(), req)
	if err != nil {
		h.logger.Warn("booking rejected", "org_id", orgID, "service_id", req.ServiceID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /appointments/{appointmentID} requests.
func (h *SchedulingHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	appt, err := h.engine.GetAppointment(r.Context(), orgID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type cancelRequest struct {
	Actor appointment.Actor `json:"actor"`
}

// Cancel handles POST /appointments/{appointmentID}/cancel requests.
func (h *SchedulingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	req := cancelRequest{Actor: appointment.ActorUser}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if !req.Actor.CanCancel() {
		http.Error(w, "invalid actor", http.StatusBadRequest)
		return
	}

	if err := h.engine.CancelAppointment(r.Context(), orgID, id, req.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(appointment.StatusCancelled)})
}

type transitionRequest struct {
	Status appointment.Status `json:"status"`
	Actor  appointment.Actor  `json:"actor"`
}

// Transition handles POST /appointments/{appointmentID}/status requests.
func (h *SchedulingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if req.Actor == "" {
		req.Actor = appointment.ActorUser
	}
	if !req.Actor.Valid() {
		http.Error(w, "invalid actor", http.StatusBadRequest)
		return
	}

	if err := h.engine.TransitionStatus(r.Context(), orgID, id, req.Status, req.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}
