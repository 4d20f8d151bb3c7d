package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides persistence for services, resources and their links.
type Repository interface {
	CreateService(ctx context.Context, svc *Service) error
	GetService(ctx context.Context, orgID string, id uuid.UUID) (*Service, error)
	// DeleteService removes the service and cascades to its resource links.
	// Historical appointments keep their denormalized service fields.
	DeleteService(ctx context.Context, orgID string, id uuid.UUID) error

	CreateResource(ctx context.Context, res *Resource) error
	GetResource(ctx context.Context, orgID string, id uuid.UUID) (*Resource, error)
	DeleteResource(ctx context.Context, orgID string, id uuid.UUID) error

	// LinkResourceToServices attaches the resource to each of the given
	// services. Linking an already-linked pair is a no-op.
	LinkResourceToServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error
	UnlinkResourceFromServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error

	// ValidateAssociation returns ErrInvalidAssociation unless the resource
	// is linked to the service.
	ValidateAssociation(ctx context.Context, orgID string, resourceID, serviceID uuid.UUID) error
}
