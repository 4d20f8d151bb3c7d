package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queueline/queueline/internal/catalog"
	"github.com/queueline/queueline/internal/scheduling"
	"github.com/queueline/queueline/internal/tenancy"
	"github.com/queueline/queueline/pkg/logging"
)

// CatalogHandler manages services, resources and their links.
type CatalogHandler struct {
	repo   catalog.Repository
	engine *scheduling.Engine
	logger *logging.Logger
}

// NewCatalogHandler creates a catalog handler. Resource deletion goes through
// the engine so future bookings block it.
func NewCatalogHandler(repo catalog.Repository, engine *scheduling.Engine, logger *logging.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, engine: engine, logger: logger}
}

type createServiceRequest struct {
	Name                 string             `json:"name"`
	EstimatedServiceTime int                `json:"estimated_service_time"`
	QueueScope           catalog.QueueScope `json:"queue_scope"`
}

// CreateService handles POST /services requests.
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	svc := &catalog.Service{
		OrgID:                orgID,
		Name:                 req.Name,
		EstimatedServiceTime: req.EstimatedServiceTime,
		QueueScope:           req.QueueScope,
	}
	if err := h.repo.CreateService(r.Context(), svc); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("service created", "org_id", orgID, "service_id", svc.ID, "name", svc.Name)
	writeJSON(w, http.StatusCreated, svc)
}

// GetService handles GET /services/{serviceID} requests.
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	svc, err := h.repo.GetService(r.Context(), orgID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// DeleteService handles DELETE /services/{serviceID} requests.
func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteService(r.Context(), orgID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createResourceRequest struct {
	Name               string               `json:"name"`
	Type               catalog.ResourceType `json:"type"`
	ConcurrentCapacity int                  `json:"concurrent_capacity"`
}

// CreateResource handles POST /resources requests.
func (h *CatalogHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req createResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res := &catalog.Resource{
		OrgID:              orgID,
		Name:               req.Name,
		Type:               req.Type,
		ConcurrentCapacity: req.ConcurrentCapacity,
	}
	if err := h.repo.CreateResource(r.Context(), res); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("resource created", "org_id", orgID, "resource_id", res.ID, "name", res.Name)
	writeJSON(w, http.StatusCreated, res)
}

// GetResource handles GET /resources/{resourceID} requests.
func (h *CatalogHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, "invalid resource id", http.StatusBadRequest)
		return
	}

	res, err := h.repo.GetResource(r.Context(), orgID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteResource handles DELETE /resources/{resourceID} requests. Resources
// with future bookings are refused.
func (h *CatalogHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, "invalid resource id", http.StatusBadRequest)
		return
	}

	if err := h.engine.DeleteResource(r.Context(), orgID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type linkRequest struct {
	ServiceIDs []uuid.UUID `json:"service_ids"`
}

// LinkServices handles PUT /resources/{resourceID}/services requests.
func (h *CatalogHandler) LinkServices(w http.ResponseWriter, r *http.Request) {
	h.updateLinks(w, r, h.engine.LinkResourceToServices)
}

// UnlinkServices handles DELETE /resources/{resourceID}/services requests.
func (h *CatalogHandler) UnlinkServices(w http.ResponseWriter, r *http.Request) {
	h.updateLinks(w, r, h.engine.UnlinkResourceFromServices)
}

func (h *CatalogHandler) updateLinks(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, "invalid resource id", http.StatusBadRequest)
		return
	}

	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.ServiceIDs) == 0 {
		http.Error(w, "service_ids required", http.StatusBadRequest)
		return
	}

	if err := apply(r.Context(), orgID, id, req.ServiceIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
