package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

type amountPayload struct {
	Amount decimal.Decimal  `json:"amount" validate:"gt=0"`
	Tax    *decimal.Decimal `json:"tax" validate:"omitempty,gte=0"`
	Reason string           `json:"reason" validate:"required"`
}

func TestDecodeJSONBodyValidatesDecimals(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"0","tax":"-1","reason":""}`))
	var payload amountPayload
	err := DecodeJSONBody(req, &payload)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	for _, field := range []string{"amount", "tax", "reason"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected %s in details %v", field, details)
		}
	}
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"12.50","reason":"ok"}`))
	var payload amountPayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payload.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("unexpected amount %s", payload.Amount)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1","reason":"x","extra":true}`))
	var payload amountPayload
	if err := DecodeJSONBody(req, &payload); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1","reason":"x"}{"amount":"2"}`))
	var payload amountPayload
	if err := DecodeJSONBody(req, &payload); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyNamesUnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1","reason":"x","extra":true}`))
	var payload amountPayload
	err := DecodeJSONBody(req, &payload)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok || details["extra"] == "" {
		t.Fatalf("expected extra in details, got %v", pkgerrors.As(err).Details())
	}
}

func TestDecodeJSONBodyRequiresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var payload amountPayload
	if err := DecodeJSONBody(req, &payload); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeOptionalJSONBodyAcceptsEmptyBody(t *testing.T) {
	type optionalPayload struct {
		Amount *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	}
	var payload optionalPayload
	if err := DecodeOptionalJSONBody(httptest.NewRequest(http.MethodPost, "/", nil), &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Amount != nil {
		t.Fatalf("expected no amount")
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	big := `{"reason":"` + strings.Repeat("x", int(MaxBodyBytes)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var payload amountPayload
	if err := DecodeJSONBody(req, &payload); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range, got %v", err)
	}
	value, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 25, 1, 100)
	if err != nil || value != 25 {
		t.Fatalf("expected default 25, got %d %v", value, err)
	}
}

func TestParseQueryDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2024-02-29&end=2024-13-01", nil)
	start, err := ParseQueryDate(req, "start")
	if err != nil || start.Day() != 29 {
		t.Fatalf("unexpected start %v %v", start, err)
	}
	if _, err := ParseQueryDate(req, "end"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	rctx.URLParams.Add("bad", "nope")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "id")
	if err != nil || got != id {
		t.Fatalf("unexpected id %s %v", got, err)
	}
	if _, err := ParseUUIDParam(req, "bad"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
