package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facilityops/incident-service/internal/domain"
)

// OfferRepository encapsulates offer and valuation persistence.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	// Decide flips a PENDING offer to the given state in one conditional
	// statement; returns pgx.ErrNoRows when the offer is no longer pending,
	// making approve/reject idempotence checks race-free.
	Decide(ctx context.Context, offerID string, state domain.OfferState, byAccountID string, rejectReason *string) error
	GetPendingByCase(ctx context.Context, caseID string) (*domain.Offer, error)
	GetApprovedByCase(ctx context.Context, caseID string) (*domain.Offer, error)
	// HasApproved is the derived ever-approved predicate; it is computed from
	// offer history on every call, never stored.
	HasApproved(ctx context.Context, caseID string) (bool, error)
	ListByCase(ctx context.Context, caseID string) ([]domain.Offer, error)
	ListByIncident(ctx context.Context, incidentID string) ([]domain.Offer, error)
	CreateValuation(ctx context.Context, v *domain.Valuation) error
	GetValuationByCase(ctx context.Context, caseID string) (*domain.Valuation, error)
}

type offerRepository struct {
	q Querier
}

const offerColumns = `id, case_id, incident_id, vendor_id, amount_excl_tax, tax_rate, amount_incl_tax,
               estimated_start, estimated_days, work_description, document_key, state,
               reject_reason, decided_at, decided_by, created_at`

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	const query = `
        INSERT INTO offers (case_id, incident_id, vendor_id, amount_excl_tax, tax_rate, amount_incl_tax,
            estimated_start, estimated_days, work_description, document_key, state)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		offer.CaseID,
		offer.IncidentID,
		offer.VendorID,
		offer.AmountExclTax,
		offer.TaxRate,
		offer.AmountInclTax,
		offer.EstimatedStart,
		offer.EstimatedDays,
		offer.WorkDescription,
		offer.DocumentKey,
		offer.State,
	).Scan(&offer.ID, &offer.CreatedAt)
}

func (r *offerRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id=$1`, offerColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *offerRepository) Decide(ctx context.Context, offerID string, state domain.OfferState, byAccountID string, rejectReason *string) error {
	const query = `
        UPDATE offers SET state=$2, decided_at=NOW(), decided_by=$3, reject_reason=$4
        WHERE id=$1 AND state='PENDING'`
	cmd, err := r.q.Exec(ctx, query, offerID, state, byAccountID, rejectReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *offerRepository) GetPendingByCase(ctx context.Context, caseID string) (*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE case_id=$1 AND state='PENDING'`, offerColumns)
	return r.fetchSingle(ctx, query, caseID)
}

func (r *offerRepository) GetApprovedByCase(ctx context.Context, caseID string) (*domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE case_id=$1 AND state='APPROVED'`, offerColumns)
	return r.fetchSingle(ctx, query, caseID)
}

func (r *offerRepository) HasApproved(ctx context.Context, caseID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM offers WHERE case_id=$1 AND state='APPROVED')`
	var exists bool
	if err := r.q.QueryRow(ctx, query, caseID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *offerRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE case_id=$1 ORDER BY created_at ASC`, offerColumns)
	return r.list(ctx, query, caseID)
}

func (r *offerRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE incident_id=$1 ORDER BY created_at ASC`, offerColumns)
	return r.list(ctx, query, incidentID)
}

func (r *offerRepository) list(ctx context.Context, query string, arg any) ([]domain.Offer, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *offer)
	}
	return result, rows.Err()
}

func (r *offerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Offer, error) {
	return scanOffer(r.q.QueryRow(ctx, query, arg))
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var offer domain.Offer
	if err := row.Scan(
		&offer.ID,
		&offer.CaseID,
		&offer.IncidentID,
		&offer.VendorID,
		&offer.AmountExclTax,
		&offer.TaxRate,
		&offer.AmountInclTax,
		&offer.EstimatedStart,
		&offer.EstimatedDays,
		&offer.WorkDescription,
		&offer.DocumentKey,
		&offer.State,
		&offer.RejectReason,
		&offer.DecidedAt,
		&offer.DecidedBy,
		&offer.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) CreateValuation(ctx context.Context, v *domain.Valuation) error {
	const query = `
        INSERT INTO valuations (case_id, incident_id, amount_excl_tax, tax_rate, amount_incl_tax, notes, document_key, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		v.CaseID,
		v.IncidentID,
		v.AmountExclTax,
		v.TaxRate,
		v.AmountInclTax,
		v.Notes,
		v.DocumentKey,
		v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt)
}

func (r *offerRepository) GetValuationByCase(ctx context.Context, caseID string) (*domain.Valuation, error) {
	const query = `
        SELECT id, case_id, incident_id, amount_excl_tax, tax_rate, amount_incl_tax, notes, document_key, created_at, created_by
        FROM valuations WHERE case_id=$1 ORDER BY created_at DESC LIMIT 1`
	var v domain.Valuation
	if err := r.q.QueryRow(ctx, query, caseID).Scan(
		&v.ID,
		&v.CaseID,
		&v.IncidentID,
		&v.AmountExclTax,
		&v.TaxRate,
		&v.AmountInclTax,
		&v.Notes,
		&v.DocumentKey,
		&v.CreatedAt,
		&v.CreatedBy,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
