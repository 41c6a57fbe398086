package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishInvokesSubscribedHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventIncidentCreated, func(ctx context.Context, e Event) error {
		got = append(got, e.IncidentID)
		return nil
	})
	d.Subscribe(EventIncidentClosed, func(ctx context.Context, e Event) error {
		got = append(got, "wrong-type")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIncidentCreated, IncidentID: "inc-1"})
	require.NoError(t, err)
	require.Equal(t, []string{"inc-1"}, got)
}

func TestPublishLogsFailingHandlerAndContinues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls int
	d.Subscribe(EventIncidentCreated, func(ctx context.Context, e Event) error {
		calls++
		return errors.New("handler exploded")
	})
	d.Subscribe(EventIncidentCreated, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIncidentCreated, IncidentID: "inc-1"})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	entries := logs.FilterMessage("event handler failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, string(EventIncidentCreated), entries[0].ContextMap()["event_type"])
}

func TestNilLoggerIsReplaced(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	d.Subscribe(EventIncidentCreated, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIncidentCreated}))
}
