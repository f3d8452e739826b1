package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/instance"
)

type sentryReporter struct {
	hub *sentry.Hub
}

// New returns a sentry-backed reporter when a DSN is configured and a Nop
// reporter otherwise.
func New(cfg config.TelemetryConfig, appEnv string) (Reporter, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}
	env := cfg.SentryEnv
	if env == "" {
		env = appEnv
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      env,
		ServerName:       instance.GetID(),
		AttachStacktrace: true,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return &sentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *sentryReporter) Capture(ctx context.Context, err error, ev Event) {
	if err == nil {
		return
	}
	ev = ev.FillFromContext(ctx)
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		if ev.Action != "" {
			scope.SetTag("action", ev.Action)
		}
		if ev.Code != "" {
			scope.SetTag("code", ev.Code)
		}
		if ev.RequestID != "" {
			scope.SetTag("request_id", ev.RequestID)
		}
		for k, v := range ev.Tags {
			scope.SetTag(k, v)
		}
		if ev.ActorID != "" {
			scope.SetUser(sentry.User{ID: ev.ActorID})
		}
		if len(ev.Extra) > 0 {
			scope.SetContext("details", sentry.Context(ev.Extra))
		}
		hub.CaptureException(err)
	})
}

func (r *sentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
