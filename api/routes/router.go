package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers"
	analyticscontrollers "github.com/Kiran3100/Hostel-Main-sub019/api/controllers/analytics"
	commissioncontrollers "github.com/Kiran3100/Hostel-Main-sub019/api/controllers/commissions"
	invoicecontrollers "github.com/Kiran3100/Hostel-Main-sub019/api/controllers/invoices"
	plancontrollers "github.com/Kiran3100/Hostel-Main-sub019/api/controllers/plans"
	subscriptioncontrollers "github.com/Kiran3100/Hostel-Main-sub019/api/controllers/subscriptions"
	usagecontrollers "github.com/Kiran3100/Hostel-Main-sub019/api/controllers/usage"
	"github.com/Kiran3100/Hostel-Main-sub019/api/middleware"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/config"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	planService plancontrollers.Service,
	subscriptionService subscriptioncontrollers.Service,
	invoiceService invoicecontrollers.Service,
	commissionService commissioncontrollers.Service,
	usageService usagecontrollers.Service,
	analyticsService analyticscontrollers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", plancontrollers.PlanCreate(planService, logg))
			r.Get("/", plancontrollers.PlanList(planService, logg))
			r.Get("/{planID}", plancontrollers.PlanGet(planService, logg))
			r.Patch("/{planID}", plancontrollers.PlanUpdate(planService, logg))
			r.Post("/{planID}/archive", plancontrollers.PlanArchive(planService, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", subscriptioncontrollers.SubscriptionCreate(subscriptionService, logg))
			r.Route("/{subscriptionID}", func(r chi.Router) {
				r.Get("/", subscriptioncontrollers.SubscriptionGet(subscriptionService, logg))
				r.Post("/suspend", subscriptioncontrollers.SubscriptionSuspend(subscriptionService, logg))
				r.Post("/activate", subscriptioncontrollers.SubscriptionActivate(subscriptionService, logg))
				r.Post("/renew", subscriptioncontrollers.SubscriptionRenew(subscriptionService, logg))
				r.Post("/cancel", subscriptioncontrollers.SubscriptionCancel(subscriptionService, logg))
				r.Post("/change-plan", subscriptioncontrollers.SubscriptionChangePlan(subscriptionService, logg))
				r.Post("/toggle-auto-renew", subscriptioncontrollers.SubscriptionToggleAutoRenew(subscriptionService, logg))
				r.Post("/end-trial", subscriptioncontrollers.SubscriptionEndTrial(subscriptionService, logg))
				r.Get("/history", subscriptioncontrollers.SubscriptionHistory(subscriptionService, logg))
				r.Get("/billing-cycles", subscriptioncontrollers.SubscriptionCycles(subscriptionService, logg))
				r.Get("/invoices", invoicecontrollers.SubscriptionInvoices(invoiceService, logg))
				r.Get("/usage", usagecontrollers.SubscriptionUsage(usageService, logg))
				r.Get("/health", analyticscontrollers.SubscriptionHealth(analyticsService, logg))
			})
		})

		r.Route("/hostels/{hostelID}", func(r chi.Router) {
			r.Get("/subscription", subscriptioncontrollers.HostelActiveSubscription(subscriptionService, logg))
			r.Post("/usage/check", usagecontrollers.UsageCheck(usageService, logg))
			r.Post("/usage/consume", usagecontrollers.UsageConsume(usageService, logg))
			r.Get("/commissions/pending", commissioncontrollers.HostelPendingCommissions(commissionService, logg))
			r.Get("/commissions/summary", commissioncontrollers.HostelCommissionSummary(commissionService, logg))
		})

		r.Route("/invoices/{invoiceID}", func(r chi.Router) {
			r.Get("/", invoicecontrollers.InvoiceGet(invoiceService, logg))
			r.Post("/payments", invoicecontrollers.InvoicePayment(invoiceService, logg))
			r.Post("/settle", invoicecontrollers.InvoiceSettle(invoiceService, logg))
			r.Post("/discount", invoicecontrollers.InvoiceDiscount(invoiceService, logg))
			r.Post("/send", invoicecontrollers.InvoiceSend(invoiceService, logg))
			r.Post("/cancel", invoicecontrollers.InvoiceCancel(invoiceService, logg))
			r.Post("/void", invoicecontrollers.InvoiceVoid(invoiceService, logg))
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Post("/", commissioncontrollers.CommissionCreateForBooking(commissionService, logg))
			r.Get("/{commissionID}", commissioncontrollers.CommissionGet(commissionService, logg))
			r.Post("/{commissionID}/transition", commissioncontrollers.CommissionTransition(commissionService, logg))
		})

		r.Get("/analytics/summary", analyticscontrollers.BillingSummary(analyticsService, logg))
	})

	return r
}
