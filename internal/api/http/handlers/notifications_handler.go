package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/incident-service/internal/api/dto"
	"github.com/facilityops/incident-service/internal/auth"
	"github.com/facilityops/incident-service/internal/service"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// NotificationsHandler exposes a vendor's unread markers.
type NotificationsHandler struct {
	service *service.OutboxService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(outbox *service.OutboxService) *NotificationsHandler {
	return &NotificationsHandler{service: outbox}
}

// ListUnread GET /notifications.
func (h *NotificationsHandler) ListUnread(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	markers, err := h.service.ListUnread(c.Context(), principal.Actor)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(markers))
	for _, marker := range markers {
		items = append(items, dto.NotificationResponse{
			ID:         marker.ID,
			IncidentID: marker.IncidentID,
			Kind:       marker.Kind,
			CreatedAt:  marker.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCount GET /notifications/count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.service.UnreadCount(c.Context(), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Count: count}})
}

// MarkSeen POST /notifications/incidents/:id/seen.
func (h *NotificationsHandler) MarkSeen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	updated, err := h.service.MarkSeen(c.Context(), c.Params("id"), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}

// ClearAll POST /notifications/clear.
func (h *NotificationsHandler) ClearAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	updated, err := h.service.ClearAll(c.Context(), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}
