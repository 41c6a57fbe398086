package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/facilityops/incident-service/internal/domain"
)

// NoteRepository stores immutable incident notes.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.IncidentNote) error
	ListByIncident(ctx context.Context, incidentID string, scopes []domain.NoteScope) ([]domain.IncidentNote, error)
}

type noteRepository struct {
	q Querier
}

func (r *noteRepository) Create(ctx context.Context, note *domain.IncidentNote) error {
	const query = `
        INSERT INTO incident_notes (incident_id, author_type, author_id, scope, body)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		note.IncidentID,
		note.AuthorType,
		note.AuthorID,
		note.Scope,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByIncident(ctx context.Context, incidentID string, scopes []domain.NoteScope) ([]domain.IncidentNote, error) {
	clauses := []string{"incident_id=$1"}
	args := []any{incidentID}
	if len(scopes) > 0 {
		placeholders := make([]string, len(scopes))
		for i, scope := range scopes {
			args = append(args, scope)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("scope IN (%s)", strings.Join(placeholders, ",")))
	}
	query := fmt.Sprintf(`
        SELECT id, incident_id, author_type, author_id, scope, body, created_at
        FROM incident_notes WHERE %s ORDER BY created_at ASC`, strings.Join(clauses, " AND "))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IncidentNote
	for rows.Next() {
		var note domain.IncidentNote
		if err := rows.Scan(
			&note.ID,
			&note.IncidentID,
			&note.AuthorType,
			&note.AuthorID,
			&note.Scope,
			&note.Body,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
