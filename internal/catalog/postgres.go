package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the catalog in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by a pgx pool (or a mock in tests).
func NewPostgresRepository(db db) *PostgresRepository {
	if db == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// CreateService inserts a new service row.
func (r *PostgresRepository) CreateService(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	query := `
		INSERT INTO services (id, org_id, name, estimated_service_time, queue_scope)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		svc.ID,
		svc.OrgID,
		svc.Name,
		svc.EstimatedServiceTime,
		string(svc.QueueScope),
	).Scan(&svc.CreatedAt); err != nil {
		return fmt.Errorf("catalog: insert service: %w", err)
	}
	return nil
}

// GetService fetches a service scoped to the org.
func (r *PostgresRepository) GetService(ctx context.Context, orgID string, id uuid.UUID) (*Service, error) {
	query := `
		SELECT id, org_id, name, estimated_service_time, queue_scope, created_at
		FROM services
		WHERE id = $1 AND org_id = $2
	`
	var svc Service
	if err := r.db.QueryRow(ctx, query, id, orgID).Scan(
		&svc.ID,
		&svc.OrgID,
		&svc.Name,
		&svc.EstimatedServiceTime,
		&svc.QueueScope,
		&svc.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: select service: %w", err)
	}
	return &svc, nil
}

// DeleteService removes the service; resource links cascade via FK.
func (r *PostgresRepository) DeleteService(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("catalog: delete service: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// CreateResource inserts a new resource row.
func (r *PostgresRepository) CreateResource(ctx context.Context, res *Resource) error {
	if err := res.Validate(); err != nil {
		return err
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	query := `
		INSERT INTO resources (id, org_id, name, type, concurrent_capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		res.ID,
		res.OrgID,
		res.Name,
		string(res.Type),
		res.ConcurrentCapacity,
	).Scan(&res.CreatedAt); err != nil {
		return fmt.Errorf("catalog: insert resource: %w", err)
	}
	return nil
}

// GetResource fetches a resource scoped to the org.
func (r *PostgresRepository) GetResource(ctx context.Context, orgID string, id uuid.UUID) (*Resource, error) {
	query := `
		SELECT id, org_id, name, type, concurrent_capacity, created_at
		FROM resources
		WHERE id = $1 AND org_id = $2
	`
	var res Resource
	if err := r.db.QueryRow(ctx, query, id, orgID).Scan(
		&res.ID,
		&res.OrgID,
		&res.Name,
		&res.Type,
		&res.ConcurrentCapacity,
		&res.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("catalog: select resource: %w", err)
	}
	return &res, nil
}

// DeleteResource removes the resource; the caller is responsible for the
// future-bookings guard (see scheduling.Engine.DeleteResource).
func (r *PostgresRepository) DeleteResource(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM resources WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("catalog: delete resource: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// LinkResourceToServices upserts (resource, service) link rows.
func (r *PostgresRepository) LinkResourceToServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error {
	if _, err := r.GetResource(ctx, orgID, resourceID); err != nil {
		return err
	}
	query := `
		INSERT INTO resource_services (resource_id, service_id)
		SELECT $1, id FROM services WHERE id = $2 AND org_id = $3
		ON CONFLICT (resource_id, service_id) DO NOTHING
	`
	for _, sid := range serviceIDs {
		ct, err := r.db.Exec(ctx, query, resourceID, sid, orgID)
		if err != nil {
			return fmt.Errorf("catalog: link resource to service: %w", err)
		}
		if ct.RowsAffected() == 0 {
			// either the service does not exist in the org, or the link already exists
			if _, err := r.GetService(ctx, orgID, sid); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnlinkResourceFromServices deletes (resource, service) link rows.
func (r *PostgresRepository) UnlinkResourceFromServices(ctx context.Context, orgID string, resourceID uuid.UUID, serviceIDs []uuid.UUID) error {
	if _, err := r.GetResource(ctx, orgID, resourceID); err != nil {
		return err
	}
	for _, sid := range serviceIDs {
		if _, err := r.db.Exec(ctx,
			`DELETE FROM resource_services WHERE resource_id = $1 AND service_id = $2`,
			resourceID, sid,
		); err != nil {
			return fmt.Errorf("catalog: unlink resource from service: %w", err)
		}
	}
	return nil
}

// ValidateAssociation checks the (resource, service) link exists within the org.
func (r *PostgresRepository) ValidateAssociation(ctx context.Context, orgID string, resourceID, serviceID uuid.UUID) error {
	query := `
		SELECT 1
		FROM resource_services rs
		JOIN resources r ON r.id = rs.resource_id
		WHERE rs.resource_id = $1 AND rs.service_id = $2 AND r.org_id = $3
	`
	var one int
	if err := r.db.QueryRow(ctx, query, resourceID, serviceID, orgID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidAssociation
		}
		return fmt.Errorf("catalog: validate association: %w", err)
	}
	return nil
}
