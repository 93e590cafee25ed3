package commissions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	commissionsvc "github.com/Kiran3100/Hostel-Main-sub019/internal/commissions"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

type stubCommissionService struct {
	commission models.Commission
	created    bool
	booking    *commissionsvc.BookingInput
	paid       *commissionsvc.PaidInput
	calls      []string
	err        error
}

func (s *stubCommissionService) record(call string) (*models.Commission, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return nil, s.err
	}
	c := s.commission
	return &c, nil
}

func (s *stubCommissionService) CreateForBooking(ctx context.Context, input commissionsvc.BookingInput) (*models.Commission, bool, error) {
	s.booking = &input
	c, err := s.record("create")
	return c, s.created, err
}

func (s *stubCommissionService) StartProcessing(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Commission, error) {
	return s.record("start_processing")
}

func (s *stubCommissionService) MarkPaid(ctx context.Context, id uuid.UUID, input commissionsvc.PaidInput) (*models.Commission, error) {
	s.paid = &input
	return s.record("pay")
}

func (s *stubCommissionService) Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error) {
	return s.record("cancel")
}

func (s *stubCommissionService) Waive(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error) {
	return s.record("waive")
}

func (s *stubCommissionService) Dispute(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error) {
	return s.record("dispute")
}

func (s *stubCommissionService) Refund(ctx context.Context, id uuid.UUID, reference string, actor uuid.UUID) (*models.Commission, error) {
	return s.record("refund")
}

func (s *stubCommissionService) Get(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	return s.record("get")
}

func (s *stubCommissionService) ListPendingForHostel(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Commission, error) {
	return []models.Commission{s.commission}, nil
}

func (s *stubCommissionService) SummaryForHostel(ctx context.Context, hostelID uuid.UUID) (*commissionsvc.Summary, error) {
	return &commissionsvc.Summary{HostelID: hostelID, Count: 1, TotalDue: decimal.NewFromInt(5)}, nil
}

func newStub() *stubCommissionService {
	return &stubCommissionService{commission: models.Commission{
		ID:                   uuid.New(),
		BookingID:            uuid.New(),
		HostelID:             uuid.New(),
		SubscriptionID:       uuid.New(),
		BookingAmount:        decimal.NewFromInt(100),
		CommissionPercentage: decimal.NewFromInt(5),
		CommissionAmount:     decimal.NewFromInt(5),
		Currency:             "USD",
		Status:               enums.CommissionStatusPending,
		DueDate:              dates.New(2024, time.February, 1),
	}}
}

func withParam(req *http.Request, key string, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func bookingBody() string {
	return `{"booking_id":"` + uuid.NewString() + `","hostel_id":"` + uuid.NewString() + `","booking_amount":"100.00","booking_date":"2024-01-02"}`
}

func TestCommissionCreateForBookingStatusReflectsReplay(t *testing.T) {
	svc := newStub()
	svc.created = true
	resp := httptest.NewRecorder()
	CommissionCreateForBooking(svc, nil)(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(bookingBody())))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.booking.BookingDate == nil || !svc.booking.BookingDate.Equal(dates.New(2024, time.January, 2)) {
		t.Fatalf("unexpected booking date %v", svc.booking.BookingDate)
	}
	if svc.booking.SubscriptionID != nil {
		t.Fatalf("subscription must be resolved by the service")
	}

	svc.created = false
	resp = httptest.NewRecorder()
	CommissionCreateForBooking(svc, nil)(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(bookingBody())))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", resp.Code)
	}
}

func TestCommissionCreateForBookingRejectsPercentageAboveHundred(t *testing.T) {
	svc := newStub()
	body := `{"booking_id":"` + uuid.NewString() + `","hostel_id":"` + uuid.NewString() + `","booking_amount":"100","percentage":"150"}`
	resp := httptest.NewRecorder()
	CommissionCreateForBooking(svc, nil)(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.booking != nil {
		t.Fatalf("service must not be called")
	}
}

func TestCommissionCreateForBookingMapsQuota(t *testing.T) {
	svc := newStub()
	svc.err = pkgerrors.New(pkgerrors.CodeQuotaExceeded, "hostel has no active subscription")
	resp := httptest.NewRecorder()
	CommissionCreateForBooking(svc, nil)(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(bookingBody())))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCommissionTransitionDispatchesActions(t *testing.T) {
	for _, action := range []string{"start_processing", "cancel", "waive", "dispute", "refund"} {
		svc := newStub()
		req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"`+action+`","reason":"r"}`)), "commissionID", svc.commission.ID)
		resp := httptest.NewRecorder()
		CommissionTransition(svc, nil)(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", action, resp.Code)
		}
		if len(svc.calls) != 1 || svc.calls[0] != action {
			t.Fatalf("%s: unexpected calls %v", action, svc.calls)
		}
	}
}

func TestCommissionTransitionPayParsesDate(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"pay","paid_date":"2024-02-10","reference":"PAY-7"}`)), "commissionID", svc.commission.ID)
	resp := httptest.NewRecorder()
	CommissionTransition(svc, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.paid.PaidDate == nil || !svc.paid.PaidDate.Equal(dates.New(2024, time.February, 10)) || svc.paid.Reference != "PAY-7" {
		t.Fatalf("unexpected paid input %+v", svc.paid)
	}
}

func TestCommissionTransitionRejectsUnknownAction(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"reopen"}`)), "commissionID", svc.commission.ID)
	resp := httptest.NewRecorder()
	CommissionTransition(svc, nil)(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service must not be called")
	}
}

func TestCommissionTransitionMapsStateConflict(t *testing.T) {
	svc := newStub()
	svc.err = pkgerrors.New(pkgerrors.CodeStateConflict, "paid commissions cannot be waived")
	req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"waive"}`)), "commissionID", svc.commission.ID)
	resp := httptest.NewRecorder()
	CommissionTransition(svc, nil)(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
}

func TestHostelCommissionSummary(t *testing.T) {
	svc := newStub()
	req := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "hostelID", uuid.New())
	resp := httptest.NewRecorder()
	HostelCommissionSummary(svc, nil)(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"total_due":"5"`) {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}
