package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueueScope selects how bookings for a service are assigned: against a
// specific slot on a resource, or against a central first-come ticket stream.
type QueueScope string

const (
	ScopeCentral     QueueScope = "CENTRAL"
	ScopePerResource QueueScope = "PER_RESOURCE"
)

// Valid reports whether the scope is one of the known values.
func (s QueueScope) Valid() bool {
	return s == ScopeCentral || s == ScopePerResource
}

// ResourceType classifies a bookable resource.
type ResourceType string

const (
	ResourceStaff     ResourceType = "staff"
	ResourceRoom      ResourceType = "room"
	ResourceEquipment ResourceType = "equipment"
	ResourceCounter   ResourceType = "counter"
	ResourceMachine   ResourceType = "machine"
)

// Valid reports whether the resource type is one of the known values.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceStaff, ResourceRoom, ResourceEquipment, ResourceCounter, ResourceMachine:
		return true
	}
	return false
}

// Service is a bookable offering published by an organization.
type Service struct {
	ID                   uuid.UUID  `json:"id"`
	OrgID                string     `json:"org_id"`
	Name                 string     `json:"name"`
	EstimatedServiceTime int        `json:"estimated_service_time"` // minutes
	QueueScope           QueueScope `json:"queue_scope"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Validate checks service fields before persistence.
func (s *Service) Validate() error {
	if strings.TrimSpace(s.OrgID) == "" {
		return ErrMissingOrgID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidName
	}
	if s.EstimatedServiceTime <= 0 {
		return ErrInvalidServiceTime
	}
	if !s.QueueScope.Valid() {
		return ErrInvalidQueueScope
	}
	return nil
}

// Resource is a bookable unit (staff member, room, counter, equipment)
// with a hard limit on simultaneous bookings.
type Resource struct {
	ID                 uuid.UUID    `json:"id"`
	OrgID              string       `json:"org_id"`
	Name               string       `json:"name"`
	Type               ResourceType `json:"type"`
	ConcurrentCapacity int          `json:"concurrent_capacity"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Validate checks resource fields before persistence.
func (r *Resource) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return ErrMissingOrgID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if !r.Type.Valid() {
		return ErrInvalidResourceType
	}
	if r.ConcurrentCapacity < 1 {
		return ErrInvalidCapacity
	}
	return nil
}
