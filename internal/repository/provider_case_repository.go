package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facilityops/incident-service/internal/domain"
)

// ProviderCaseRepository encapsulates assignment-record persistence.
type ProviderCaseRepository interface {
	Create(ctx context.Context, c *domain.ProviderCase) error
	Update(ctx context.Context, c *domain.ProviderCase) error
	GetByID(ctx context.Context, id string) (*domain.ProviderCase, error)
	// GetActiveByIncident returns the single active case, pgx.ErrNoRows when
	// none exists.
	GetActiveByIncident(ctx context.Context, incidentID string) (*domain.ProviderCase, error)
	// DeactivateActive stamps active=false on the current active case in one
	// conditional statement; returns the number of cases deactivated (0 or 1).
	DeactivateActive(ctx context.Context, incidentID, byAccountID, reason string) (int64, error)
	CountActive(ctx context.Context, incidentID string) (int, error)
	ListByIncident(ctx context.Context, incidentID string) ([]domain.ProviderCase, error)
}

type providerCaseRepository struct {
	q Querier
}

const caseColumns = `id, incident_id, vendor_id, state, priority, instructions, active,
               assigned_at, assigned_by, deactivated_at, deactivated_by, deactivation_reason,
               close_month, review_scope, review_pending, created_at, updated_at`

func (r *providerCaseRepository) Create(ctx context.Context, c *domain.ProviderCase) error {
	const query = `
        INSERT INTO provider_cases (incident_id, vendor_id, state, priority, instructions, active, assigned_at, assigned_by)
        VALUES ($1,$2,$3,$4,$5,$6,NOW(),$7)
        RETURNING id, assigned_at, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		c.IncidentID,
		c.VendorID,
		c.State,
		c.Priority,
		c.Instructions,
		c.Active,
		c.AssignedBy,
	).Scan(&c.ID, &c.AssignedAt, &c.CreatedAt, &c.UpdatedAt)
}

func (r *providerCaseRepository) Update(ctx context.Context, c *domain.ProviderCase) error {
	const query = `
        UPDATE provider_cases SET state=$1, priority=$2, instructions=$3, active=$4,
            deactivated_at=$5, deactivated_by=$6, deactivation_reason=$7,
            close_month=$8, review_scope=$9, review_pending=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.q.Exec(ctx, query,
		c.State,
		c.Priority,
		c.Instructions,
		c.Active,
		c.DeactivatedAt,
		c.DeactivatedBy,
		c.Deactivation,
		c.CloseMonth,
		c.ReviewScope,
		c.ReviewPending,
		c.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *providerCaseRepository) GetByID(ctx context.Context, id string) (*domain.ProviderCase, error) {
	query := fmt.Sprintf(`SELECT %s FROM provider_cases WHERE id=$1`, caseColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *providerCaseRepository) GetActiveByIncident(ctx context.Context, incidentID string) (*domain.ProviderCase, error) {
	query := fmt.Sprintf(`SELECT %s FROM provider_cases WHERE incident_id=$1 AND active`, caseColumns)
	return r.fetchSingle(ctx, query, incidentID)
}

func (r *providerCaseRepository) DeactivateActive(ctx context.Context, incidentID, byAccountID, reason string) (int64, error) {
	const query = `
        UPDATE provider_cases SET active=false, deactivated_at=NOW(), deactivated_by=$2,
            deactivation_reason=$3, updated_at=NOW()
        WHERE incident_id=$1 AND active`
	cmd, err := r.q.Exec(ctx, query, incidentID, byAccountID, reason)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *providerCaseRepository) CountActive(ctx context.Context, incidentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM provider_cases WHERE incident_id=$1 AND active`
	var count int
	if err := r.q.QueryRow(ctx, query, incidentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *providerCaseRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.ProviderCase, error) {
	query := fmt.Sprintf(`SELECT %s FROM provider_cases WHERE incident_id=$1 ORDER BY assigned_at ASC`, caseColumns)
	rows, err := r.q.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProviderCase
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *providerCaseRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ProviderCase, error) {
	return scanCase(r.q.QueryRow(ctx, query, arg))
}

func scanCase(row pgx.Row) (*domain.ProviderCase, error) {
	var c domain.ProviderCase
	if err := row.Scan(
		&c.ID,
		&c.IncidentID,
		&c.VendorID,
		&c.State,
		&c.Priority,
		&c.Instructions,
		&c.Active,
		&c.AssignedAt,
		&c.AssignedBy,
		&c.DeactivatedAt,
		&c.DeactivatedBy,
		&c.Deactivation,
		&c.CloseMonth,
		&c.ReviewScope,
		&c.ReviewPending,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
