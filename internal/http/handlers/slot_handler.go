package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/ledger"
	"github.com/queueline/queueline/internal/tenancy"
	"github.com/queueline/queueline/pkg/logging"
)

// SlotHandler manages the slot ledger over HTTP.
type SlotHandler struct {
	ledger *ledger.Ledger
	logger *logging.Logger
}

// NewSlotHandler creates a slot handler.
func NewSlotHandler(led *ledger.Ledger, logger *logging.Logger) *SlotHandler {
	return &SlotHandler{ledger: led, logger: logger}
}

type createSlotRequest struct {
	ResourceID      uuid.UUID `json:"resource_id"`
	ServiceID       uuid.UUID `json:"service_id,omitempty"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Capacity        int       `json:"capacity"`
}

// Create handles POST /slots requests.
func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	slot, err := h.ledger.CreateSlot(r.Context(), ledger.CreateSlotInput{
		OrgID:           orgID,
		ResourceID:      req.ResourceID,
		ServiceID:       req.ServiceID,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// Get handles GET /slots/{slotID} requests.
func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	slot, err := h.ledger.Get(r.Context(), orgID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

// Delete handles DELETE /slots/{slotID} requests. Slots with bookings
// counted against them are refused.
func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	if err := h.ledger.DeleteSlot(r.Context(), orgID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateCapacityRequest struct {
	Capacity int `json:"capacity"`
}

// UpdateCapacity handles PATCH /slots/{slotID}/capacity requests.
func (h *SlotHandler) UpdateCapacity(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	var req updateCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.ledger.UpdateCapacity(r.Context(), orgID, id, req.Capacity); err != nil {
		writeError(w, err)
		return
	}

	slot, err := h.ledger.Get(r.Context(), orgID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}
