package repository

import (
	"context"

	"github.com/facilityops/incident-service/internal/domain"
)

// DocumentRepository stores storage-key references to uploaded documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.DocumentRef) error
	ListByIncident(ctx context.Context, incidentID string) ([]domain.DocumentRef, error)
}

type documentRepository struct {
	q Querier
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.DocumentRef) error {
	const query = `
        INSERT INTO document_refs (incident_id, kind, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		doc.IncidentID,
		doc.Kind,
		doc.StorageKey,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
	).Scan(&doc.ID, &doc.CreatedAt)
}

func (r *documentRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.DocumentRef, error) {
	const query = `
        SELECT id, incident_id, kind, storage_key, file_name, mime_type, size_bytes, created_at
        FROM document_refs WHERE incident_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DocumentRef
	for rows.Next() {
		var doc domain.DocumentRef
		if err := rows.Scan(
			&doc.ID,
			&doc.IncidentID,
			&doc.Kind,
			&doc.StorageKey,
			&doc.FileName,
			&doc.MimeType,
			&doc.SizeBytes,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}
