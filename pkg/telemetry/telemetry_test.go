package telemetry

import (
	"context"
	"testing"

	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutDSNReturnsNop(t *testing.T) {
	r, err := New(config.TelemetryConfig{}, "dev")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, r)
	assert.True(t, r.Flush(0))
}

func TestNewRejectsMalformedDSN(t *testing.T) {
	_, err := New(config.TelemetryConfig{SentryDSN: "::not a dsn"}, "dev")
	require.Error(t, err)
}

func TestEventFillFromContext(t *testing.T) {
	ctx := WithActor(WithAction(context.Background(), "order.create"), "user-1")
	ctx = WithRequestID(ctx, "req-9")

	ev := Event{Code: "INTERNAL_ERROR"}.FillFromContext(ctx)
	assert.Equal(t, "order.create", ev.Action)
	assert.Equal(t, "user-1", ev.ActorID)
	assert.Equal(t, "req-9", ev.RequestID)

	kept := Event{Action: "explicit"}.FillFromContext(ctx)
	assert.Equal(t, "explicit", kept.Action)
}

func TestContextHelpersEmpty(t *testing.T) {
	assert.Empty(t, ActionFrom(context.Background()))
	assert.Empty(t, ActorFrom(context.Background()))
	assert.Empty(t, RequestIDFrom(context.Background()))
}
