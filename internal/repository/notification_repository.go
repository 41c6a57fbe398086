package repository

import (
	"context"

	"github.com/facilityops/incident-service/internal/domain"
)

// NotificationRepository stores per-vendor unread markers.
type NotificationRepository interface {
	Create(ctx context.Context, marker *domain.NotificationMarker) error
	ListUnseenByVendor(ctx context.Context, vendorID string) ([]domain.NotificationMarker, error)
	CountUnseenByVendor(ctx context.Context, vendorID string) (int, error)
	// MarkSeen flips the unseen markers for one (vendor, incident) pair;
	// returns how many were flipped.
	MarkSeen(ctx context.Context, vendorID, incidentID string) (int64, error)
	// ClearAll marks every unseen marker for a vendor in a single conditional
	// statement so concurrent clears cannot partially apply.
	ClearAll(ctx context.Context, vendorID string) (int64, error)
}

type notificationRepository struct {
	q Querier
}

func (r *notificationRepository) Create(ctx context.Context, marker *domain.NotificationMarker) error {
	const query = `
        INSERT INTO notification_markers (vendor_id, incident_id, kind)
        VALUES ($1,$2,$3)
        ON CONFLICT (vendor_id, incident_id, kind) WHERE NOT seen DO UPDATE SET created_at=NOW()
        RETURNING id, seen, created_at`
	return r.q.QueryRow(ctx, query,
		marker.VendorID,
		marker.IncidentID,
		marker.Kind,
	).Scan(&marker.ID, &marker.Seen, &marker.CreatedAt)
}

func (r *notificationRepository) ListUnseenByVendor(ctx context.Context, vendorID string) ([]domain.NotificationMarker, error) {
	const query = `
        SELECT id, vendor_id, incident_id, kind, seen, created_at, seen_at
        FROM notification_markers WHERE vendor_id=$1 AND NOT seen ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NotificationMarker
	for rows.Next() {
		var marker domain.NotificationMarker
		if err := rows.Scan(
			&marker.ID,
			&marker.VendorID,
			&marker.IncidentID,
			&marker.Kind,
			&marker.Seen,
			&marker.CreatedAt,
			&marker.SeenAt,
		); err != nil {
			return nil, err
		}
		result = append(result, marker)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnseenByVendor(ctx context.Context, vendorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notification_markers WHERE vendor_id=$1 AND NOT seen`
	var count int
	if err := r.q.QueryRow(ctx, query, vendorID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkSeen(ctx context.Context, vendorID, incidentID string) (int64, error) {
	const query = `
        UPDATE notification_markers SET seen=true, seen_at=NOW()
        WHERE vendor_id=$1 AND incident_id=$2 AND NOT seen`
	cmd, err := r.q.Exec(ctx, query, vendorID, incidentID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) ClearAll(ctx context.Context, vendorID string) (int64, error) {
	const query = `
        UPDATE notification_markers SET seen=true, seen_at=NOW()
        WHERE vendor_id=$1 AND NOT seen`
	cmd, err := r.q.Exec(ctx, query, vendorID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
