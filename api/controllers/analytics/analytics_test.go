package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	analyticssvc "github.com/Kiran3100/Hostel-Main-sub019/internal/analytics"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

type stubAnalyticsService struct {
	start time.Time
	end   time.Time
}

func (s *stubAnalyticsService) Summary(ctx context.Context, start, end time.Time) (*analyticssvc.Summary, error) {
	s.start, s.end = start, end
	return &analyticssvc.Summary{PeriodStart: start, PeriodEnd: end, MRR: decimal.NewFromInt(100)}, nil
}

func (s *stubAnalyticsService) SubscriptionHealth(ctx context.Context, subscriptionID uuid.UUID) (*analyticssvc.Health, error) {
	return &analyticssvc.Health{SubscriptionID: subscriptionID, Status: enums.SubscriptionStatusActive, Score: 90}, nil
}

func withFixedNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNowUTC
	timeNowUTC = func() time.Time { return now }
	t.Cleanup(func() { timeNowUTC = prev })
}

func TestBillingSummaryDefaultsToThirtyDays(t *testing.T) {
	withFixedNow(t, time.Date(2024, time.March, 31, 15, 0, 0, 0, time.UTC))
	svc := &stubAnalyticsService{}

	resp := httptest.NewRecorder()
	BillingSummary(svc, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !svc.start.Equal(dates.New(2024, time.March, 2)) || !svc.end.Equal(dates.New(2024, time.March, 31)) {
		t.Fatalf("unexpected period %s..%s", svc.start, svc.end)
	}
}

func TestBillingSummaryExplicitRange(t *testing.T) {
	svc := &stubAnalyticsService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary?start=2024-01-01&end=2024-01-31", nil)

	resp := httptest.NewRecorder()
	BillingSummary(svc, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !svc.start.Equal(dates.New(2024, time.January, 1)) || !svc.end.Equal(dates.New(2024, time.January, 31)) {
		t.Fatalf("unexpected period %s..%s", svc.start, svc.end)
	}
}

func TestBillingSummaryRejectsBadRanges(t *testing.T) {
	cases := []string{
		"/api/v1/analytics/summary?start=2024-01-01",
		"/api/v1/analytics/summary?start=2024-02-01&end=2024-01-01",
		"/api/v1/analytics/summary?preset=2w",
		"/api/v1/analytics/summary?start=jan",
	}
	for _, target := range cases {
		resp := httptest.NewRecorder()
		BillingSummary(&stubAnalyticsService{}, nil)(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestSubscriptionHealthHandler(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("subscriptionID", uuid.NewString())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	SubscriptionHealth(&stubAnalyticsService{}, nil)(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
