package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilityops/incident-service/internal/domain"
)

// IncidentFilter captures listing parameters.
type IncidentFilter struct {
	CenterID    *string
	ReporterID  *string
	States      []domain.ClientState
	Priorities  []domain.ClientPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Update(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	GetByRequestNumber(ctx context.Context, number string) (*domain.Incident, error)
	// LockByID acquires the per-incident row lock; call inside InTx so
	// concurrent transitions on the same incident serialize.
	LockByID(ctx context.Context, id string) (*domain.Incident, error)
	ListWithFilter(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
}

type incidentRepository struct {
	q Querier
}

const incidentColumns = `id, request_number, center_id, reporter_id, description,
               classification, client_state, priority, created_at, updated_at, closed_at`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (request_number, center_id, reporter_id, description, classification, client_state, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		incident.RequestNumber,
		incident.CenterID,
		incident.ReporterID,
		incident.Description,
		incident.Classification,
		incident.ClientState,
		incident.Priority,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	const query = `
        UPDATE incidents SET description=$1, classification=$2, client_state=$3, priority=$4,
            closed_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.q.Exec(ctx, query,
		incident.Description,
		incident.Classification,
		incident.ClientState,
		incident.Priority,
		incident.ClosedAt,
		incident.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id=$1`, incidentColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *incidentRepository) GetByRequestNumber(ctx context.Context, number string) (*domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE request_number=$1`, incidentColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *incidentRepository) LockByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id=$1 FOR UPDATE`, incidentColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *incidentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Incident, error) {
	var incident domain.Incident
	if err := r.q.QueryRow(ctx, query, arg).Scan(
		&incident.ID,
		&incident.RequestNumber,
		&incident.CenterID,
		&incident.ReporterID,
		&incident.Description,
		&incident.Classification,
		&incident.ClientState,
		&incident.Priority,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) ListWithFilter(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CenterID != nil {
		args = append(args, *filter.CenterID)
		clauses = append(clauses, fmt.Sprintf("center_id=$%d", len(args)))
	}
	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("client_state IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(description) LIKE %s OR LOWER(classification) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		incidentColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Incident
	for rows.Next() {
		var incident domain.Incident
		if err := rows.Scan(
			&incident.ID,
			&incident.RequestNumber,
			&incident.CenterID,
			&incident.ReporterID,
			&incident.Description,
			&incident.Classification,
			&incident.ClientState,
			&incident.Priority,
			&incident.CreatedAt,
			&incident.UpdatedAt,
			&incident.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}
