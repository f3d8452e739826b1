// Package telemetry reports unexpected failures to an error tracker.
package telemetry

import (
	"context"
	"time"
)

type ctxKey int

const (
	actionKey ctxKey = iota
	actorKey
	requestKey
)

// Event carries the request-scoped facts attached to a captured error.
type Event struct {
	Action    string
	ActorID   string
	RequestID string
	Code      string
	Tags      map[string]string
	Extra     map[string]any
}

// Reporter captures errors that operators need to see.
type Reporter interface {
	Capture(ctx context.Context, err error, ev Event)
	Flush(timeout time.Duration) bool
}

// WithAction names the operation running under ctx.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKey, action)
}

// WithActor attaches the authenticated user id to ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// WithRequestID attaches the id echoed in the X-Request-Id header.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestKey, requestID)
}

func ActionFrom(ctx context.Context) string {
	v, _ := ctx.Value(actionKey).(string)
	return v
}

func ActorFrom(ctx context.Context) string {
	v, _ := ctx.Value(actorKey).(string)
	return v
}

func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestKey).(string)
	return v
}

// FillFromContext copies the request facts from ctx into empty fields.
func (e Event) FillFromContext(ctx context.Context) Event {
	if e.Action == "" {
		e.Action = ActionFrom(ctx)
	}
	if e.ActorID == "" {
		e.ActorID = ActorFrom(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = RequestIDFrom(ctx)
	}
	return e
}

// Nop discards everything.
type Nop struct{}

func (Nop) Capture(context.Context, error, Event) {}

func (Nop) Flush(time.Duration) bool { return true }
