package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code       Code
		status     int
		retryable  bool
		detailsOK  bool
		useMessage bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true, useMessage: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, detailsOK: true, useMessage: true},
		{code: CodeForbidden, status: http.StatusForbidden, useMessage: true},
		{code: CodeNotFound, status: http.StatusNotFound, useMessage: true},
		{code: CodeConflict, status: http.StatusConflict, useMessage: true},
		{code: CodeDuplicatePending, status: http.StatusConflict, detailsOK: true, useMessage: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true, useMessage: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, detailsOK: true, useMessage: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, useMessage: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.UseMessage != tt.useMessage {
			t.Fatalf("code %s expected use message %v got %v", tt.code, tt.useMessage, meta.UseMessage)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestReportable(t *testing.T) {
	if !Reportable(CodeInternal) || !Reportable(CodeDependency) {
		t.Fatal("internal and dependency failures should be reported")
	}
	if Reportable(CodeValidation) || Reportable(CodeDuplicatePending) {
		t.Fatal("expected failures should not be reported")
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if wrapped.Error() != "CONFLICT: ctx: boom" {
		t.Fatalf("unexpected error text %q", wrapped.Error())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if !IsCode(err, CodeForbidden) {
		t.Fatalf("IsCode should match wrapped code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("cancel: %w", Newf(CodeStateConflict, "order %s is %s", "o-1", "delivered"))
	if err.Error() != "cancel: STATE_CONFLICT: order o-1 is delivered" {
		t.Fatalf("unexpected text %q", err.Error())
	}
	if !stdErrors.Is(err, New(CodeStateConflict, "")) {
		t.Fatal("expected bare code sentinel to match")
	}
	if stdErrors.Is(err, New(CodeStateConflict, "other message")) {
		t.Fatal("expected differing message not to match")
	}
	if stdErrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected differing code not to match")
	}
}

func TestCoerce(t *testing.T) {
	typed := New(CodeNotFound, "gone")
	if Coerce(fmt.Errorf("wrap: %w", typed)) != typed {
		t.Fatal("expected Coerce to return the typed error in the chain")
	}
	plain := stdErrors.New("socket closed")
	got := Coerce(plain)
	if got.Code() != CodeInternal || !stdErrors.Is(got, plain) {
		t.Fatalf("expected internal wrap of plain error, got %v", got)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_pkey",
		TableName:      "orders",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, pgErr, "insert order")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	pg := dump.Postgres
	if pg == nil || pg.Code != "23505" || pg.Constraint != "orders_pkey" || pg.Table != "orders" {
		t.Fatalf("unexpected pg fields %+v", pg)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}

	fields := dump.LogFields()
	if fields["pg_constraint"] != "orders_pkey" || fields["error_code"] != CodeDependency {
		t.Fatalf("unexpected log fields %v", fields)
	}
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	err := fmt.Errorf("seed catalog: %w", &pq.Error{
		Code:       "23505",
		Constraint: "idx_product_catalog_single_active",
		Table:      "product_catalog",
	})

	dump := Dump(err)
	if dump.Code != "" {
		t.Fatalf("untyped error should carry no code, got %s", dump.Code)
	}
	if dump.Postgres == nil || dump.Postgres.Constraint != "idx_product_catalog_single_active" {
		t.Fatalf("expected lib/pq details, got %+v", dump.Postgres)
	}
}

func TestDumpWithoutPostgresCause(t *testing.T) {
	dump := Dump(New(CodeValidation, "bad phone"))
	if dump.Postgres != nil {
		t.Fatalf("expected no pg details, got %+v", dump.Postgres)
	}
	if _, ok := dump.LogFields()["pg_code"]; ok {
		t.Fatal("pg fields should be omitted")
	}
	if got := Dump(nil); got.TopMessage != "" || got.Chain != nil {
		t.Fatalf("expected empty dump for nil, got %+v", got)
	}
}
