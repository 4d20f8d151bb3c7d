package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/queueline/queueline/internal/allocator"
	"github.com/queueline/queueline/internal/appointment"
	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/internal/ledger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain sentinels to HTTP status codes. Unrecognized errors
// return 500 with a generic body so internals do not leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrResourceNotFound),
		errors.Is(err, ledger.ErrSlotNotFound),
		errors.Is(err, appointment.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrSlotFull),
		errors.Is(err, ledger.ErrSlotInUse),
		errors.Is(err, catalog.ErrResourceInUse),
		errors.Is(err, appointment.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrSlotExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrCapacityExceedsResource),
		errors.Is(err, catalog.ErrInvalidAssociation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, allocator.ErrSlotSelectionRequired),
		errors.Is(err, appointment.ErrInvalidActor),
		errors.Is(err, catalog.ErrMissingOrgID),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidServiceTime),
		errors.Is(err, catalog.ErrInvalidQueueScope),
		errors.Is(err, catalog.ErrInvalidResourceType),
		errors.Is(err, catalog.ErrInvalidCapacity),
		errors.Is(err, ledger.ErrInvalidSlotCapacity),
		errors.Is(err, ledger.ErrInvalidStartTime),
		errors.Is(err, ledger.ErrInvalidDuration):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
