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

// OffersHandler manages the offer sub-flow.
type OffersHandler struct {
	service *service.OfferService
}

// NewOffersHandler constructs handler.
func NewOffersHandler(offerService *service.OfferService) *OffersHandler {
	return &OffersHandler{service: offerService}
}

// SubmitOffer POST /cases/:id/offers.
func (h *OffersHandler) SubmitOffer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.SubmitOffer(c.Context(), c.Params("id"), service.SubmitOfferInput{
		AmountExclTax:   domain.Cents(req.AmountExclTax),
		TaxRate:         domain.TaxRate(req.TaxRate),
		EstimatedStart:  req.EstimatedStart,
		EstimatedDays:   req.EstimatedDays,
		WorkDescription: req.WorkDescription,
		DocumentKey:     req.DocumentKey,
	}, principal.Actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": transitionResponse(result)})
}

// ApproveOffer POST /offers/:id/approve.
func (h *OffersHandler) ApproveOffer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	result, err := h.service.ApproveOffer(c.Context(), c.Params("id"), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// RejectOffer POST /offers/:id/reject.
func (h *OffersHandler) RejectOffer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.RejectOffer(c.Context(), c.Params("id"), req.Reason, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

func offerResponse(offer *domain.Offer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:              offer.ID,
		CaseID:          offer.CaseID,
		VendorID:        offer.VendorID,
		AmountExclTax:   int64(offer.AmountExclTax),
		TaxRate:         int(offer.TaxRate),
		AmountInclTax:   int64(offer.AmountInclTax),
		EstimatedStart:  offer.EstimatedStart,
		EstimatedDays:   offer.EstimatedDays,
		WorkDescription: offer.WorkDescription,
		DocumentKey:     offer.DocumentKey,
		State:           offer.State,
		RejectReason:    offer.RejectReason,
		DecidedAt:       offer.DecidedAt,
		CreatedAt:       offer.CreatedAt,
	}
}
