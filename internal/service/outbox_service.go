package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/facilityops/incident-service/internal/domain"
	"github.com/facilityops/incident-service/internal/repository"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

const (
	unreadCountKeyPrefix = "notif:unread:"
	unreadCountTTL       = 5 * time.Minute
)

// OutboxService exposes a vendor's unread notification markers. The unread
// count is cached in Redis per vendor; every mutation drops the cached value.
type OutboxService struct {
	store  repository.Store
	cache  *redis.Client
	logger *zap.Logger
}

// NewOutboxService creates the service. cache may be nil, in which case
// counts always hit the database.
func NewOutboxService(store repository.Store, cache *redis.Client, logger *zap.Logger) *OutboxService {
	return &OutboxService{store: store, cache: cache, logger: logger}
}

// ListUnread returns the vendor's unseen markers, newest first.
func (s *OutboxService) ListUnread(ctx context.Context, actor domain.Actor) ([]domain.NotificationMarker, error) {
	vendorID, err := actorVendorID(actor)
	if err != nil {
		return nil, err
	}
	markers, err := s.store.Notifications().ListUnseenByVendor(ctx, vendorID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return markers, nil
}

// UnreadCount returns the number of unseen markers for the vendor, consulting
// the Redis cache first.
func (s *OutboxService) UnreadCount(ctx context.Context, actor domain.Actor) (int, error) {
	vendorID, err := actorVendorID(actor)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, unreadCountKey(vendorID)).Result()
		if err == nil {
			if n, convErr := strconv.Atoi(cached); convErr == nil {
				return n, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("unread count cache read failed", zap.Error(err))
		}
	}

	count, err := s.store.Notifications().CountUnseenByVendor(ctx, vendorID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, unreadCountKey(vendorID), count, unreadCountTTL).Err(); err != nil {
			s.logger.Warn("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

// MarkSeen marks the vendor's markers for one incident as read.
func (s *OutboxService) MarkSeen(ctx context.Context, incidentID string, actor domain.Actor) (int64, error) {
	vendorID, err := actorVendorID(actor)
	if err != nil {
		return 0, err
	}
	updated, err := s.store.Notifications().MarkSeen(ctx, vendorID, incidentID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if updated > 0 {
		s.Invalidate(ctx, vendorID)
	}
	return updated, nil
}

// ClearAll marks every unseen marker for the vendor as read.
func (s *OutboxService) ClearAll(ctx context.Context, actor domain.Actor) (int64, error) {
	vendorID, err := actorVendorID(actor)
	if err != nil {
		return 0, err
	}
	updated, err := s.store.Notifications().ClearAll(ctx, vendorID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if updated > 0 {
		s.Invalidate(ctx, vendorID)
	}
	return updated, nil
}

// Invalidate drops the cached unread count for a vendor.
func (s *OutboxService) Invalidate(ctx context.Context, vendorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCountKey(vendorID)).Err(); err != nil {
		s.logger.Warn("unread count cache invalidation failed", zap.Error(err))
	}
}

func unreadCountKey(vendorID string) string {
	return unreadCountKeyPrefix + vendorID
}

func actorVendorID(actor domain.Actor) (string, error) {
	if !actor.IsVendor() || actor.VendorID == nil {
		return "", apperrors.NewForbidden("vendor role required")
	}
	return *actor.VendorID, nil
}
