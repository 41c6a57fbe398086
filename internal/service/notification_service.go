package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/facilityops/incident-service/internal/config"
	"github.com/facilityops/incident-service/internal/events"
)

// NotificationService reacts to domain events: it pushes stub email/webhook
// notifications and drops stale vendor unread-count cache entries. The unread
// markers themselves are written transactionally by the lifecycle services;
// this service only handles the observational tail.
type NotificationService struct {
	dispatcher events.Dispatcher
	outbox     *OutboxService
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, outbox *OutboxService, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		outbox:     outbox,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProviderAssigned, n.handleVendorFacing)
	n.dispatcher.Subscribe(events.EventProviderReassigned, n.handleVendorFacing)
	n.dispatcher.Subscribe(events.EventAssignmentAnnulled, n.handleVendorFacing)
	n.dispatcher.Subscribe(events.EventOfferApproved, n.handleVendorFacing)
	n.dispatcher.Subscribe(events.EventOfferRejected, n.handleVendorFacing)
	n.dispatcher.Subscribe(events.EventIncidentClosed, n.handleClientFacing)
	n.dispatcher.Subscribe(events.EventIncidentAnnulled, n.handleClientFacing)
	n.dispatcher.Subscribe(events.EventCaseResolved, n.handleClientFacing)
}

func (n *NotificationService) handleVendorFacing(ctx context.Context, event events.Event) error {
	n.logger.Info("vendor notification",
		zap.String("incident_id", event.IncidentID),
		zap.String("event_type", string(event.Type)))

	if vendorID := eventVendorID(event); vendorID != "" && n.outbox != nil {
		n.outbox.Invalidate(ctx, vendorID)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleClientFacing(ctx context.Context, event events.Event) error {
	n.logger.Info("client notification",
		zap.String("incident_id", event.IncidentID),
		zap.String("event_type", string(event.Type)))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("incident_id", event.IncidentID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("incident_id", event.IncidentID),
		zap.String("event_type", string(event.Type)))
}

// eventVendorID extracts the affected vendor from known payload shapes.
func eventVendorID(event events.Event) string {
	switch p := event.Payload.(type) {
	case events.ProviderAssignedPayload:
		return p.VendorID
	case events.AssignmentAnnulledPayload:
		return p.VendorID
	}
	if event.Actor.VendorID != nil {
		return *event.Actor.VendorID
	}
	return ""
}
