package repository

import (
	"context"

	"github.com/facilityops/incident-service/internal/domain"
)

// AuditRepository stores the append-only transition log. Entries are never
// updated or deleted.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByIncident(ctx context.Context, incidentID string, limit, offset int) ([]domain.AuditEntry, error)
	CountByIncident(ctx context.Context, incidentID string) (int, error)
}

type auditRepository struct {
	q Querier
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_entries (incident_id, case_id, track, from_state, to_state, actor_id, actor_role, action, reason, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		entry.IncidentID,
		entry.CaseID,
		entry.Track,
		entry.FromState,
		entry.ToState,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.Reason,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByIncident(ctx context.Context, incidentID string, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, incident_id, case_id, track, from_state, to_state, actor_id, actor_role, action, reason, metadata, created_at
        FROM audit_entries WHERE incident_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, incidentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.IncidentID,
			&entry.CaseID,
			&entry.Track,
			&entry.FromState,
			&entry.ToState,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Action,
			&entry.Reason,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) CountByIncident(ctx context.Context, incidentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM audit_entries WHERE incident_id=$1`
	var count int
	if err := r.q.QueryRow(ctx, query, incidentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
