package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers"
	"github.com/Kiran3100/Hostel-Main-sub019/api/routes"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/analytics"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/billingcycles"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/commissions"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/invoices"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/plans"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/subscriptions"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/usage"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/config"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/instance"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/migrate"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Environment: cfg.App.Env,
		Format:      cfg.App.LogFormat,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient)
	requireResource(logg, "dev migrations", err)

	readiness := map[string]controllers.Pinger{"db": dbClient, "redis": nil}
	if cfg.Redis.Configured() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		requireResource(logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient
	}

	billingMetrics := metrics.NewBillingMetrics(prometheus.DefaultRegisterer)
	conn := dbClient.DB()

	planService, err := plans.NewService(plans.ServiceParams{
		Repo:              plans.NewRepository(conn),
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	requireResource(logg, "plan service", err)

	cycleService, err := billingcycles.NewService(billingcycles.NewRepository(conn), nil)
	requireResource(logg, "billing cycle service", err)

	usageService, err := usage.NewService(usage.ServiceParams{
		Repo:           usage.NewRepository(conn),
		Logger:         logg,
		Metrics:        billingMetrics,
		WarningPercent: cfg.Billing.UsageWarningPercent,
	})
	requireResource(logg, "usage service", err)

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:                   subscriptions.NewRepository(conn),
		Plans:                  planService,
		Cycles:                 cycleService,
		Usage:                  usageService,
		TransactionRunner:      dbClient,
		Logger:                 logg,
		Metrics:                billingMetrics,
		ReactivationWindowDays: cfg.Billing.ReactivationWindowDays,
	})
	requireResource(logg, "subscription service", err)

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:              invoices.NewRepository(conn),
		Subscriptions:     subscriptionService,
		Cycles:            cycleService,
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           billingMetrics,
		DueDays:           cfg.Billing.InvoiceDueDays,
		NumberAttempts:    cfg.Billing.InvoiceNumberAttempts,
	})
	requireResource(logg, "invoice service", err)

	commissionConfig, err := commissions.NewConfig(
		cfg.Commission.DefaultPercentage,
		cfg.Commission.MinPercentage,
		cfg.Commission.MaxPercentage,
		cfg.Commission.PlanRates,
		cfg.Commission.DueDays,
	)
	requireResource(logg, "commission config", err)

	commissionService, err := commissions.NewService(commissions.ServiceParams{
		Repo:              commissions.NewRepository(conn),
		Subscriptions:     subscriptionService,
		Config:            commissionConfig,
		TransactionRunner: dbClient,
		Logger:            logg,
		Metrics:           billingMetrics,
	})
	requireResource(logg, "commission service", err)

	analyticsService, err := analytics.NewService(analytics.NewRepository(conn), nil)
	requireResource(logg, "analytics service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			readiness,
			prometheus.DefaultGatherer,
			planService,
			subscriptionService,
			invoiceService,
			commissionService,
			usageService,
			analyticsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
