package catalog

import "errors"

var (
	// ErrServiceNotFound is returned when a service does not exist in the org.
	ErrServiceNotFound = errors.New("service not found")

	// ErrResourceNotFound is returned when a resource does not exist in the org.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrInvalidAssociation is returned when a booking targets a (resource,
	// service) pair that has not been linked.
	ErrInvalidAssociation = errors.New("resource is not linked to service")

	// ErrResourceInUse is returned when deleting a resource that still has
	// future slots holding bookings.
	ErrResourceInUse = errors.New("resource has future slots with active bookings")

	ErrMissingOrgID        = errors.New("org id is required")
	ErrInvalidName         = errors.New("name is required")
	ErrInvalidServiceTime  = errors.New("estimated service time must be positive")
	ErrInvalidQueueScope   = errors.New("queue scope must be CENTRAL or PER_RESOURCE")
	ErrInvalidResourceType = errors.New("unknown resource type")
	ErrInvalidCapacity     = errors.New("concurrent capacity must be at least 1")
)
