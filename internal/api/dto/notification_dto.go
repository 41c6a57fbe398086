package dto

import (
	"time"

	"github.com/facilityops/incident-service/internal/domain"
)

// NotificationResponse represents one unread marker.
type NotificationResponse struct {
	ID         string                  `json:"id"`
	IncidentID string                  `json:"incident_id"`
	Kind       domain.NotificationKind `json:"kind"`
	CreatedAt  time.Time               `json:"created_at"`
}

// UnreadCountResponse wraps the vendor's unread total.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
