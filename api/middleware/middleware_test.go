package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/angelmondragon/bakery-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
)

func newTestLimiter(t *testing.T, now time.Time) *ratelimit.Limiter {
	t.Helper()
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter
}

func TestRateLimitBlocksPerIP(t *testing.T) {
	now := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	policy := ratelimit.GeneralAPI(2, time.Minute)
	handler := RateLimit(newTestLimiter(t, now), policy, time.UTC, nil)(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/public/catalog", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1:4000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, rec.Code)
		}
	}
	blocked := send("10.0.0.1:4001")
	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", blocked.Code)
	}
	if blocked.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(blocked.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
	if !strings.Contains(payload.Error.Message, "07:01") {
		t.Fatalf("expected reset label in message, got %q", payload.Error.Message)
	}

	if rec := send("10.0.0.2:4000"); rec.Code != http.StatusOK {
		t.Fatalf("other ip: expected 200 got %d", rec.Code)
	}
}

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, ratelimit.Policy) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("store down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{}, ratelimit.GeneralAPI(1, time.Minute), time.UTC, nil)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	if got := clientIP(req); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %s", got)
	}
	req.Header.Set("X-Real-IP", "192.0.2.7")
	if got := clientIP(req); got != "192.0.2.7" {
		t.Fatalf("expected real ip, got %s", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.5" {
		t.Fatalf("expected forwarded ip, got %s", got)
	}
}

func TestRecovererConvertsPanic(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(pkgerrors.CodeInternal)) {
		t.Fatalf("expected internal error envelope, got %s", rec.Body.String())
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(requestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "req-123" || seen != "req-123" {
		t.Fatalf("expected echoed request id, got %q", rec.Header().Get(requestIDHeader))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	var fromCtx string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = telemetry.RequestIDFrom(r.Context())
	}))

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("a", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get(requestIDHeader)
		if got == bad || got == "" {
			t.Fatalf("expected %q to be replaced, got %q", bad, got)
		}
		if fromCtx != got {
			t.Fatalf("context id %q does not match header %q", fromCtx, got)
		}
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	line := buf.String()
	for _, want := range []string{`"message":"request.complete"`, `"status":418`, `"path":"/health/live"`, `"bytes":15`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in log line %s", want, line)
		}
	}
}

type recordedObservation struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	seen []recordedObservation
}

func (f *fakeObserver) Observe(method, route string, status int, _ time.Duration) {
	f.seen = append(f.seen, recordedObservation{method: method, route: route, status: status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &fakeObserver{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Get("/api/v1/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if len(obs.seen) != 2 {
		t.Fatalf("expected 2 observations got %d", len(obs.seen))
	}
	if got := obs.seen[0]; got.route != "/api/v1/orders/{orderId}" || got.status != http.StatusNoContent {
		t.Fatalf("unexpected observation %+v", got)
	}
	if got := obs.seen[1]; got.status != http.StatusNotFound {
		t.Fatalf("expected 404 observation, got %+v", got)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := CORS(config.CORSConfig{Origins: []string{"https://bakery.example"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://bakery.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://bakery.example" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unknown origin, got %q", got)
	}
}
