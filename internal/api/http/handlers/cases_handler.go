package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/incident-service/internal/api/dto"
	"github.com/facilityops/incident-service/internal/auth"
	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/service"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// CasesHandler manages provider-track transitions on a case.
type CasesHandler struct {
	lifecycle  *service.LifecycleService
	assignment *service.AssignmentService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(lifecycle *service.LifecycleService, assignment *service.AssignmentService) *CasesHandler {
	return &CasesHandler{lifecycle: lifecycle, assignment: assignment}
}

// Resolve POST /cases/:id/resolve.
func (h *CasesHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.lifecycle.Resolve(c.Context(), c.Params("id"), req.Comment, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// AcceptResolution POST /cases/:id/accept-resolution.
func (h *CasesHandler) AcceptResolution(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	result, err := h.lifecycle.AcceptResolution(c.Context(), c.Params("id"), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// SendToReview POST /cases/:id/send-to-review.
func (h *CasesHandler) SendToReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SendToReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.lifecycle.SendToReview(c.Context(), c.Params("id"), req.Scope, req.Reason, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// Value POST /cases/:id/value.
func (h *CasesHandler) Value(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ValuationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.lifecycle.Value(c.Context(), c.Params("id"), service.ValuationInput{
		AmountExclTax: domain.Cents(req.AmountExclTax),
		TaxRate:       domain.TaxRate(req.TaxRate),
		Notes:         req.Notes,
		DocumentKey:   req.DocumentKey,
	}, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// Annul POST /cases/:id/annul.
func (h *CasesHandler) Annul(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AnnulAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.assignment.AnnulAssignment(c.Context(), c.Params("id"), req.Reason, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// ScheduleVisit POST /cases/:id/visits.
func (h *CasesHandler) ScheduleVisit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ScheduleVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	visit, err := h.lifecycle.ScheduleVisit(c.Context(), c.Params("id"), req.ScheduledFor, req.Notes, principal.Actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": visitResponse(visit)})
}

// Actions GET /cases/:id/actions.
func (h *CasesHandler) Actions(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	actions, err := h.lifecycle.AvailableActions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	names := make([]string, 0, len(actions))
	for _, action := range actions {
		names = append(names, string(action))
	}
	return c.JSON(fiber.Map{"data": dto.ActionsResponse{
		CaseID:  c.Params("id"),
		Actions: names,
	}})
}

func caseResponse(c *domain.ProviderCase) dto.CaseResponse {
	return dto.CaseResponse{
		ID:            c.ID,
		IncidentID:    c.IncidentID,
		VendorID:      c.VendorID,
		State:         c.State,
		Priority:      c.Priority,
		Instructions:  c.Instructions,
		Active:        c.Active,
		AssignedAt:    c.AssignedAt,
		DeactivatedAt: c.DeactivatedAt,
		Deactivation:  c.Deactivation,
		CloseMonth:    c.CloseMonth,
		ReviewScope:   c.ReviewScope,
		ReviewPending: c.ReviewPending,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func visitResponse(v *domain.Visit) dto.VisitResponse {
	return dto.VisitResponse{
		ID:           v.ID,
		IncidentID:   v.IncidentID,
		CaseID:       v.CaseID,
		VendorID:     v.VendorID,
		ScheduledFor: v.ScheduledFor,
		Notes:        v.Notes,
		Status:       v.Status,
		CancelReason: v.CancelReason,
		CreatedAt:    v.CreatedAt,
	}
}
