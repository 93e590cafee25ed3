package invoices

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/api/middleware"
	invoicesvc "github.com/Kiran3100/Hostel-Main-sub019/internal/invoices"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/pagination"
)

type stubInvoiceService struct {
	invoice    models.Invoice
	payment    *invoicesvc.PaymentInput
	settle     *invoicesvc.SettleInput
	discount   decimal.Decimal
	reason     string
	voided     bool
	pageParams pagination.Params
	sentBy     uuid.UUID
	paymentErr error
}

func (s *stubInvoiceService) copy() *models.Invoice {
	inv := s.invoice
	return &inv
}

func (s *stubInvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.copy(), nil
}

func (s *stubInvoiceService) ApplyPayment(ctx context.Context, id uuid.UUID, input invoicesvc.PaymentInput) (*models.Invoice, error) {
	s.payment = &input
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	inv := s.copy()
	inv.AmountPaid = inv.AmountPaid.Add(input.Amount)
	inv.AmountDue = inv.Amount.Sub(inv.AmountPaid)
	return inv, nil
}

func (s *stubInvoiceService) MarkAsPaid(ctx context.Context, id uuid.UUID, input invoicesvc.SettleInput) (*models.Invoice, error) {
	s.settle = &input
	inv := s.copy()
	inv.Status = enums.InvoiceStatusPaid
	return inv, nil
}

func (s *stubInvoiceService) ApplyDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal, actor uuid.UUID) (*models.Invoice, error) {
	s.discount = discount
	return s.copy(), nil
}

func (s *stubInvoiceService) Send(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Invoice, error) {
	s.sentBy = actor
	inv := s.copy()
	inv.Status = enums.InvoiceStatusSent
	return inv, nil
}

func (s *stubInvoiceService) Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error) {
	s.reason = reason
	return s.copy(), nil
}

func (s *stubInvoiceService) Void(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error) {
	s.reason = reason
	s.voided = true
	return s.copy(), nil
}

func (s *stubInvoiceService) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, params pagination.Params) (pagination.Page[models.Invoice], error) {
	s.pageParams = params
	return pagination.Page[models.Invoice]{Items: []models.Invoice{s.invoice}, NextCursor: "next"}, nil
}

func newStub() *stubInvoiceService {
	day := dates.New(2024, time.March, 1)
	return &stubInvoiceService{invoice: models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-2024-000001",
		InvoiceDate:   day,
		DueDate:       dates.AddDays(day, 15),
		Subtotal:      decimal.RequireFromString("100"),
		Amount:        decimal.RequireFromString("100"),
		AmountDue:     decimal.RequireFromString("100"),
		Currency:      "USD",
		Status:        enums.InvoiceStatusPending,
	}}
}

func withParam(req *http.Request, key string, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestInvoicePaymentForwardsInput(t *testing.T) {
	svc := newStub()
	actor := uuid.New()
	body := `{"amount":"40.00","reference":"TXN-1","method":"card","paid_date":"2024-03-05"}`
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "invoiceID", svc.invoice.ID)
	req = req.WithContext(middleware.WithActorID(req.Context(), actor))

	resp := httptest.NewRecorder()
	InvoicePayment(svc, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.payment.Amount.Equal(decimal.RequireFromString("40")) || svc.payment.Actor != actor {
		t.Fatalf("unexpected payment input %+v", svc.payment)
	}
	if svc.payment.PaidDate == nil || !svc.payment.PaidDate.Equal(dates.New(2024, time.March, 5)) {
		t.Fatalf("unexpected paid date %v", svc.payment.PaidDate)
	}

	var envelope struct {
		Data struct {
			AmountDue string `json:"amount_due"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.AmountDue != "60.00" {
		t.Fatalf("expected amount due 60.00, got %s", envelope.Data.AmountDue)
	}
}

func TestInvoicePaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"0"}`)), "invoiceID", svc.invoice.ID)
	resp := httptest.NewRecorder()
	InvoicePayment(svc, nil)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.payment != nil {
		t.Fatalf("service must not be called")
	}
}

func TestInvoicePaymentMapsOverpayment(t *testing.T) {
	svc := newStub()
	svc.paymentErr = pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds amount due")
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"500"}`)), "invoiceID", svc.invoice.ID)
	resp := httptest.NewRecorder()
	InvoicePayment(svc, nil)(resp, req)
	if resp.Code != http.StatusBadRequest || !strings.Contains(resp.Body.String(), "payment exceeds amount due") {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}

func TestInvoiceSettleMarksPaid(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reference":"TXN-2"}`)), "invoiceID", svc.invoice.ID)
	resp := httptest.NewRecorder()
	InvoiceSettle(svc, nil)(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"status":"paid"`) {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
	if svc.settle.Reference != "TXN-2" || svc.settle.PaidDate != nil {
		t.Fatalf("unexpected settle input %+v", svc.settle)
	}
}

func TestInvoiceDiscountRejectsNegative(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"discount":"-5"}`)), "invoiceID", svc.invoice.ID)
	resp := httptest.NewRecorder()
	InvoiceDiscount(svc, nil)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	req = withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"discount":"5"}`)), "invoiceID", svc.invoice.ID)
	resp = httptest.NewRecorder()
	InvoiceDiscount(svc, nil)(resp, req)
	if resp.Code != http.StatusOK || !svc.discount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected discount applied, got %d", resp.Code)
	}
}

func TestInvoiceVoidRequiresReason(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), "invoiceID", svc.invoice.ID)
	resp := httptest.NewRecorder()
	InvoiceVoid(svc, nil)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	req = withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"duplicate"}`)), "invoiceID", svc.invoice.ID)
	resp = httptest.NewRecorder()
	InvoiceVoid(svc, nil)(resp, req)
	if resp.Code != http.StatusOK || !svc.voided || svc.reason != "duplicate" {
		t.Fatalf("expected void, got %d", resp.Code)
	}
}

func TestInvoiceSendForwardsActor(t *testing.T) {
	svc := newStub()
	actor := uuid.New()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "invoiceID", svc.invoice.ID)
	req = req.WithContext(middleware.WithActorID(req.Context(), actor))
	resp := httptest.NewRecorder()
	InvoiceSend(svc, nil)(resp, req)
	if resp.Code != http.StatusOK || svc.sentBy != actor {
		t.Fatalf("expected send by actor, got %d", resp.Code)
	}
}

func TestSubscriptionInvoicesPaginates(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=abc", nil), "subscriptionID", uuid.New())
	resp := httptest.NewRecorder()
	SubscriptionInvoices(svc, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if svc.pageParams.Limit != 10 || svc.pageParams.Cursor != "abc" {
		t.Fatalf("unexpected page params %+v", svc.pageParams)
	}

	var envelope struct {
		Data invoicePageResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Invoices) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}
