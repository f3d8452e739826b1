package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
	"github.com/angelmondragon/bakery-backend/pkg/types"
)

// Options tune error rendering for the whole process.
type Options struct {
	// Reporter receives INTERNAL and DEPENDENCY failures.
	Reporter telemetry.Reporter
	// Diagnostics appends the underlying cause to the public message.
	Diagnostics bool
}

var (
	optsMu sync.RWMutex
	opts   = Options{Reporter: telemetry.Nop{}}
)

// Configure is called once at startup, before the router serves traffic.
func Configure(o Options) {
	if o.Reporter == nil {
		o.Reporter = telemetry.Nop{}
	}
	optsMu.Lock()
	opts = o
	optsMu.Unlock()
}

func current() Options {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.Coerce(err)

	meta := pkgerrors.MetadataFor(typed.Code())
	o := current()

	msg := meta.PublicMessage
	if meta.UseMessage {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}
	if o.Diagnostics {
		msg += "\n[Dev] " + causeText(typed, err)
	}

	var details any
	if meta.DetailsAllowed {
		details = typed.Details()
	}
	payload := types.NewErrorEnvelope(string(typed.Code()), msg, details)
	payload.Error.RequestID = telemetry.RequestIDFrom(ctx)

	if logg != nil {
		fields := pkgerrors.Dump(err).LogFields()
		fields["http_status"] = meta.HTTPStatus
		logCtx := logg.WithFields(ctx, fields)
		if pkgerrors.Reportable(typed.Code()) {
			logg.Error(logCtx, "request.error", err)
		} else {
			logg.Info(logCtx, "request.rejected")
		}
	}

	if pkgerrors.Reportable(typed.Code()) {
		o.Reporter.Capture(ctx, err, telemetry.Event{
			Code:  string(typed.Code()),
			Extra: map[string]any{"details": typed.Details()},
		})
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

// causeText is the innermost non-typed error message, falling back to the
// typed message.
func causeText(typed *pkgerrors.Error, err error) string {
	if cause := typed.Unwrap(); cause != nil {
		return cause.Error()
	}
	if typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
