package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facilityops/incident-service/internal/domain"
)

// VisitRepository stores scheduled repair visits.
type VisitRepository interface {
	Create(ctx context.Context, visit *domain.Visit) error
	GetByID(ctx context.Context, id string) (*domain.Visit, error)
	Complete(ctx context.Context, id string) error
	// CancelScheduled cancels every still-scheduled visit for the
	// (incident, vendor) pair in one statement; returns how many it touched.
	CancelScheduled(ctx context.Context, incidentID, vendorID, reason string) (int64, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Visit, error)
}

type visitRepository struct {
	q Querier
}

const visitColumns = `id, incident_id, case_id, vendor_id, scheduled_for, notes, status, cancel_reason, created_at, updated_at`

func (r *visitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	const query = `
        INSERT INTO visits (incident_id, case_id, vendor_id, scheduled_for, notes, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		visit.IncidentID,
		visit.CaseID,
		visit.VendorID,
		visit.ScheduledFor,
		visit.Notes,
		visit.Status,
	).Scan(&visit.ID, &visit.CreatedAt, &visit.UpdatedAt)
}

func (r *visitRepository) GetByID(ctx context.Context, id string) (*domain.Visit, error) {
	query := fmt.Sprintf(`SELECT %s FROM visits WHERE id=$1`, visitColumns)
	var visit domain.Visit
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&visit.ID,
		&visit.IncidentID,
		&visit.CaseID,
		&visit.VendorID,
		&visit.ScheduledFor,
		&visit.Notes,
		&visit.Status,
		&visit.CancelReason,
		&visit.CreatedAt,
		&visit.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) Complete(ctx context.Context, id string) error {
	const query = `
        UPDATE visits SET status='COMPLETED', updated_at=NOW()
        WHERE id=$1 AND status='SCHEDULED'`
	cmd, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *visitRepository) CancelScheduled(ctx context.Context, incidentID, vendorID, reason string) (int64, error) {
	const query = `
        UPDATE visits SET status='CANCELLED', cancel_reason=$3, updated_at=NOW()
        WHERE incident_id=$1 AND vendor_id=$2 AND status='SCHEDULED'`
	cmd, err := r.q.Exec(ctx, query, incidentID, vendorID, reason)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *visitRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Visit, error) {
	query := fmt.Sprintf(`SELECT %s FROM visits WHERE case_id=$1 ORDER BY scheduled_for ASC`, visitColumns)
	rows, err := r.q.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Visit
	for rows.Next() {
		var visit domain.Visit
		if err := rows.Scan(
			&visit.ID,
			&visit.IncidentID,
			&visit.CaseID,
			&visit.VendorID,
			&visit.ScheduledFor,
			&visit.Notes,
			&visit.Status,
			&visit.CancelReason,
			&visit.CreatedAt,
			&visit.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, visit)
	}
	return result, rows.Err()
}
