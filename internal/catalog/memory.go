package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type linkKey struct {
	resourceID uuid.UUID
	serviceID  uuid.UUID
}

// InMemoryRepository keeps the catalog in process memory. Used in tests and
// single-node deployments without a database.
type InMemoryRepository struct {
	mu        sync.RWMutex
	services  map[uuid.UUID]*Service
	resources map[uuid.UUID]*Resource
	links     map[linkKey]struct{}
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		services:  make(map[uuid.UUID]*Service),
		resources: make(map[uuid.UUID]*Resource),
		links:     make(map[linkKey]struct{}),
	}
}

// CreateService stores a new service.
func (r *InMemoryRepository) CreateService(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = time.Now().UTC()
	}
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

// GetService returns a service scoped to the org.
func (r *InMemoryRepository) GetService(ctx context.Context, orgID string, id uuid.UUID) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok || svc.OrgID != orgID {
		return nil, ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

// DeleteService removes the service and its resource links.
func (r *InMemoryRepository) DeleteService(ctx context.Context, orgID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok || svc.OrgID != orgID {
		return ErrServiceNotFound
	}
	delete(r.services, id)
	for key := range r.links {
		if key.serviceID == id {
			delete(r.links, key)
		}
	}
	return nil
}

// CreateResource stores a new resource.
func (r *InMemoryRepository) CreateResource(ctx context.Context, res *Resource) error {
	if err := res.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	cp := *res
	r.resources[res.ID] = &cp
	return nil
}

// GetResource returns a resource scoped to the org.
func (r *InMemoryRepository) GetResource(ctx context.Context, orgID string, id uuid.UUID) (*Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[id]
	if !ok || res.OrgID != orgID {
		return nil, ErrResourceNotFound
	}
	cp := *res
	return &cp, nil
}

// DeleteResource removes the resource and its service links.
func (r *InMemoryRepository) DeleteResource(ctx context.Context, orgID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[id]
	if !ok || res.OrgID != orgID {
		return ErrResourceNotFound
	}
	delete(r.resources, id)
	for key := range r.links {
		if key.resourceID == id {
			delete(r.links, key)
		}
	}
	return nil
}

// LinkResourceToServices attaches the resource to the given services.
func (r *InMemoryRepository) LinkResourceToServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[resourceID]
	if !ok || res.OrgID != orgID {
		return ErrResourceNotFound
	}
	for _, sid := range serviceIDs {
		svc, ok := r.services[sid]
		if !ok || svc.OrgID != orgID {
			return ErrServiceNotFound
		}
	}
	for _, sid := range serviceIDs {
		r.links[linkKey{resourceID: resourceID, serviceID: sid}] = struct{}{}
	}
	return nil
}

// UnlinkResourceFromServices detaches the resource from the given services.
func (r *InMemoryRepository) UnlinkResourceFromServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[resourceID]
	if !ok || res.OrgID != orgID {
		return ErrResourceNotFound
	}
	for _, sid := range serviceIDs {
		delete(r.links, linkKey{resourceID: resourceID, serviceID: sid})
	}
	return nil
}

// ValidateAssociation checks the (resource, service) link exists.
func (r *InMemoryRepository) ValidateAssociation(ctx context.Context, orgID string, resourceID, serviceID uuid.UUID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[resourceID]
	if !ok || res.OrgID != orgID {
		return ErrResourceNotFound
	}
	if _, ok := r.links[linkKey{resourceID: resourceID, serviceID: serviceID}]; !ok {
		return ErrInvalidAssociation
	}
	return nil
}
