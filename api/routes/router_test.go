package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/config"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewBillingMetrics(reg)
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	return NewRouter(cfg, nil, map[string]controllers.Pinger{"db": stubPinger{}}, reg, nil, nil, nil, nil, nil, nil)
}

func TestRouterHealth(t *testing.T) {
	router := testRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestRouterServesMetrics(t *testing.T) {
	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "hostel_billing_") {
		t.Fatalf("expected billing metrics, got %s", resp.Body.String())
	}
}

func TestRouterRejectsMalformedActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req.Header.Set("X-Actor-Id", "nobody")
	resp := httptest.NewRecorder()
	testRouter(t).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRouterMountsDomainRoutes(t *testing.T) {
	router := testRouter(t)
	id := uuid.NewString()
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/plans"},
		{http.MethodGet, "/api/v1/subscriptions/" + id},
		{http.MethodGet, "/api/v1/subscriptions/" + id + "/invoices"},
		{http.MethodGet, "/api/v1/hostels/" + id + "/subscription"},
		{http.MethodGet, "/api/v1/invoices/" + id},
		{http.MethodGet, "/api/v1/commissions/" + id},
		{http.MethodGet, "/api/v1/analytics/summary"},
	}
	for _, rt := range routes {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(rt.method, rt.path, nil))
		// Nil services answer 500 from the handler; an unmounted route would be 404.
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected handler response, got %d", rt.method, rt.path, resp.Code)
		}
	}
}
