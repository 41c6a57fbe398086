package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/incident-service/internal/api/dto"
	"github.com/facilityops/incident-service/internal/auth"
	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/repository"
	"github.com/facilityops/incident-service/internal/service"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

// IncidentsHandler manages incident intake, listing and client-track
// transitions.
type IncidentsHandler struct {
	lifecycle  *service.LifecycleService
	assignment *service.AssignmentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(lifecycle *service.LifecycleService, assignment *service.AssignmentService) *IncidentsHandler {
	return &IncidentsHandler{lifecycle: lifecycle, assignment: assignment}
}

// CreateIncident POST /incidents.
func (h *IncidentsHandler) CreateIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.lifecycle.CreateIncident(c.Context(), service.IncidentCreateInput{
		CenterID:       req.CenterID,
		Description:    req.Description,
		Classification: req.Classification,
		Priority:       req.Priority,
	}, principal.Actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": incidentSummary(incident)})
}

// ListIncidents GET /incidents.
func (h *IncidentsHandler) ListIncidents(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incidents, err := h.lifecycle.ListIncidents(c.Context(), parseIncidentQuery(c), principal.Actor)
	if err != nil {
		return err
	}
	items := make([]dto.IncidentSummary, 0, len(incidents))
	for i := range incidents {
		items = append(items, incidentSummary(&incidents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIncident GET /incidents/:id.
func (h *IncidentsHandler) GetIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.lifecycle.GetIncidentDetail(c.Context(), c.Params("id"), principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentDetail(detail)})
}

// AssignProvider POST /incidents/:id/assign.
func (h *IncidentsHandler) AssignProvider(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignProviderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.assignment.AssignProvider(c.Context(), c.Params("id"), service.AssignProviderInput{
		VendorID:     req.VendorID,
		Priority:     req.Priority,
		Instructions: req.Instructions,
		Reassign:     req.Reassign,
		Reason:       req.Reason,
	}, principal.Actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": transitionResponse(result)})
}

// CloseIncident POST /incidents/:id/close.
func (h *IncidentsHandler) CloseIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CloseIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.lifecycle.Close(c.Context(), c.Params("id"), req.Reason, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// AnnulIncident POST /incidents/:id/annul.
func (h *IncidentsHandler) AnnulIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AnnulIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.lifecycle.AnnulIncident(c.Context(), c.Params("id"), req.Reason, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

// ManualResolve POST /incidents/:id/manual-resolve.
func (h *IncidentsHandler) ManualResolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ManualResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.ManualResolveInput{
		Description:        req.Description,
		VendorExternalName: req.VendorExternalName,
	}
	if req.AmountExclTax != nil {
		amount := domain.Cents(*req.AmountExclTax)
		input.AmountExclTax = &amount
	}
	if req.TaxRate != nil {
		rate := domain.TaxRate(*req.TaxRate)
		if !rate.Valid() {
			return apperrors.NewValidationError("unrecognized tax rate", map[string]any{"tax_rate": *req.TaxRate})
		}
		input.TaxRate = &rate
	}
	for _, doc := range req.Documents {
		input.Documents = append(input.Documents, service.DocumentInput{
			StorageKey: doc.StorageKey,
			FileName:   doc.FileName,
			MimeType:   doc.MimeType,
			SizeBytes:  doc.SizeBytes,
		})
	}
	result, err := h.lifecycle.ManualResolve(c.Context(), c.Params("id"), input, principal.Actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result)})
}

func parseIncidentQuery(c *fiber.Ctx) repository.IncidentFilter {
	filter := repository.IncidentFilter{}
	if centerID := c.Query("center_id"); centerID != "" {
		filter.CenterID = &centerID
	}
	if stateStr := c.Query("state"); stateStr != "" {
		for _, part := range strings.Split(stateStr, ",") {
			filter.States = append(filter.States, domain.ClientState(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.ClientPriority(strings.TrimSpace(part)))
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func incidentSummary(incident *domain.Incident) dto.IncidentSummary {
	return dto.IncidentSummary{
		ID:             incident.ID,
		RequestNumber:  incident.RequestNumber,
		CenterID:       incident.CenterID,
		Description:    incident.Description,
		Classification: incident.Classification,
		ClientState:    incident.ClientState,
		Priority:       incident.Priority,
		CreatedAt:      incident.CreatedAt,
		UpdatedAt:      incident.UpdatedAt,
	}
}

func incidentDetail(detail *service.IncidentDetail) dto.IncidentDetailResponse {
	incident := detail.Incident
	cases := make([]dto.CaseResponse, 0, len(detail.Cases))
	for i := range detail.Cases {
		cases = append(cases, caseResponse(&detail.Cases[i]))
	}
	offers := make([]dto.OfferResponse, 0, len(detail.Offers))
	for i := range detail.Offers {
		offers = append(offers, offerResponse(&detail.Offers[i]))
	}
	audit := make([]dto.AuditEntryResponse, 0, len(detail.Audit))
	for _, entry := range detail.Audit {
		audit = append(audit, dto.AuditEntryResponse{
			ID:        entry.ID,
			CaseID:    entry.CaseID,
			Track:     string(entry.Track),
			FromState: entry.FromState,
			ToState:   entry.ToState,
			ActorID:   entry.ActorID,
			ActorRole: entry.ActorRole,
			Action:    string(entry.Action),
			Reason:    entry.Reason,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		})
	}
	notes := make([]dto.NoteResponse, 0, len(detail.Notes))
	for _, note := range detail.Notes {
		notes = append(notes, dto.NoteResponse{
			ID:         note.ID,
			AuthorType: note.AuthorType,
			AuthorID:   note.AuthorID,
			Scope:      note.Scope,
			Body:       note.Body,
			CreatedAt:  note.CreatedAt,
		})
	}
	return dto.IncidentDetailResponse{
		ID:             incident.ID,
		RequestNumber:  incident.RequestNumber,
		CenterID:       incident.CenterID,
		ReporterID:     incident.ReporterID,
		Description:    incident.Description,
		Classification: incident.Classification,
		ClientState:    incident.ClientState,
		Priority:       incident.Priority,
		CreatedAt:      incident.CreatedAt,
		UpdatedAt:      incident.UpdatedAt,
		ClosedAt:       incident.ClosedAt,
		Cases:          cases,
		Offers:         offers,
		Audit:          audit,
		Notes:          notes,
	}
}

func transitionResponse(result *service.TransitionResult) dto.TransitionResponse {
	resp := dto.TransitionResponse{
		NewState:      result.NewState,
		AuditEntryIDs: result.AuditEntryIDs,
	}
	if result.Incident != nil {
		summary := incidentSummary(result.Incident)
		resp.Incident = &summary
	}
	if result.Case != nil {
		caseResp := caseResponse(result.Case)
		resp.Case = &caseResp
	}
	return resp
}
