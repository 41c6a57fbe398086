package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facilityops/incident-service/internal/domain"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

func newOutbox(f *fixture) *OutboxService {
	return NewOutboxService(f.store, nil, zap.NewNop())
}

func TestOutboxListUnread(t *testing.T) {
	f := newFixture(t)
	outbox := newOutbox(f)
	incident := f.createIncident(t)
	f.assign(t, incident.ID, vendorID)

	markers, err := outbox.ListUnread(context.Background(), vendorActor(vendorID))
	require.NoError(t, err)
	require.Len(t, markers, 1)
	require.Equal(t, domain.NotificationKindAssignment, markers[0].Kind)
	require.Equal(t, incident.ID, markers[0].IncidentID)

	markers, err = outbox.ListUnread(context.Background(), vendorActor(vendor2ID))
	require.NoError(t, err)
	require.Empty(t, markers)
}

func TestOutboxRequiresVendor(t *testing.T) {
	f := newFixture(t)
	outbox := newOutbox(f)

	_, err := outbox.ListUnread(context.Background(), controlActor)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = outbox.UnreadCount(context.Background(), reporterActor)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = outbox.ClearAll(context.Background(), controlActor)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestOutboxUnreadCountWithoutCache(t *testing.T) {
	f := newFixture(t)
	outbox := newOutbox(f)
	incident := f.createIncident(t)
	c := f.assign(t, incident.ID, vendorID)

	count, err := outbox.UnreadCount(context.Background(), vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = f.assignment.AnnulAssignment(context.Background(), c.ID, "duplicate report", controlActor)
	require.NoError(t, err)

	count, err = outbox.UnreadCount(context.Background(), vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestOutboxMarkSeen(t *testing.T) {
	f := newFixture(t)
	outbox := newOutbox(f)
	first := f.createIncident(t)
	f.assign(t, first.ID, vendorID)
	second := f.createIncident(t)
	f.assign(t, second.ID, vendorID)

	updated, err := outbox.MarkSeen(context.Background(), first.ID, vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	markers, err := outbox.ListUnread(context.Background(), vendorActor(vendorID))
	require.NoError(t, err)
	require.Len(t, markers, 1)
	require.Equal(t, second.ID, markers[0].IncidentID)

	// Marking again is a no-op.
	updated, err = outbox.MarkSeen(context.Background(), first.ID, vendorActor(vendorID))
	require.NoError(t, err)
	require.Zero(t, updated)
}

func TestOutboxClearAll(t *testing.T) {
	f := newFixture(t)
	outbox := newOutbox(f)
	first := f.createIncident(t)
	f.assign(t, first.ID, vendorID)
	second := f.createIncident(t)
	f.assign(t, second.ID, vendorID)

	updated, err := outbox.ClearAll(context.Background(), vendorActor(vendorID))
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	count, err := outbox.UnreadCount(context.Background(), vendorActor(vendorID))
	require.NoError(t, err)
	require.Zero(t, count)
}
