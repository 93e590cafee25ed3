package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeQuotaExceeded, status: http.StatusForbidden, publicMsg: "plan limit reached", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
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
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeQuotaExceeded, "rooms limit reached")
	if got := As(err); got == nil || got.Code() != CodeQuotaExceeded {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	inner := New(CodeNotFound, "invoice not found")
	outer := fmt.Errorf("apply payment: %w", inner)
	if !IsCode(outer, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND through fmt wrap")
	}
	if IsCode(outer, CodeConflict) {
		t.Fatalf("unexpected CONFLICT match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection reset"), "load subscription")
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CodeStateConflict, "cannot %s a %s invoice", "void", "paid")
	if err.Message() != "cannot void a paid invoice" || err.Code() != CodeStateConflict {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDumpFieldsIncludePostgresDiagnostics(t *testing.T) {
	pgErr := &pq.Error{Code: "23505", Constraint: "idx_invoices_invoice_number", Table: "invoices"}
	d := Dump(Wrap(CodeConflict, pgErr, "insert invoice"))
	fields := d.Fields()

	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "idx_invoices_invoice_number" {
		t.Fatalf("unexpected postgres fields %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty postgres values must be omitted")
	}
	if fields["error_code"] != CodeConflict || fields["retryable"] != false {
		t.Fatalf("unexpected code fields %v", fields)
	}
}

func TestDumpFieldsForPlainError(t *testing.T) {
	fields := Dump(stdErrors.New("boom")).Fields()
	if _, ok := fields["error_code"]; ok {
		t.Fatalf("plain errors carry no code: %v", fields)
	}
	if fields["error"] != "boom" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestCodeOfAndRetryable(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(CodeDependency, "db down"))
	if CodeOf(wrapped) != CodeDependency || !IsRetryable(wrapped) {
		t.Fatalf("expected retryable dependency error, got %s", CodeOf(wrapped))
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatal("untyped errors should map to internal")
	}
	if IsRetryable(New(CodeValidation, "bad")) || IsRetryable(nil) {
		t.Fatal("validation errors and nil are not retryable")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "load plan")
	if got := err.Error(); got != "DEPENDENCY_ERROR: load plan: connection refused" {
		t.Fatalf("unexpected error string %q", got)
	}
	if got := New(CodeNotFound, "plan not found").Error(); got != "NOT_FOUND: plan not found" {
		t.Fatalf("unexpected error string %q", got)
	}
}
