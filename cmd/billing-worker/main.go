package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kiran3100/Hostel-Main-sub019/internal/billingcycles"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/cron"
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

const serviceKind = "billing-worker"

func main() {
	once := flag.Bool("once", false, "run every billing job a single time and exit")
	jobName := flag.String("job", "", "run a single named billing job and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	billingMetrics := metrics.NewBillingMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
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

	registry, err := buildRegistry(cfg, logg, cycleService, invoiceService, subscriptionService, usageService)
	requireResource(logg, "job registry", err)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	requireResource(logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    jobMetrics,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	requireResource(logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
		"interval":    cfg.Cron.Interval.String(),
	})

	if *once || *jobName != "" {
		var report cron.RunReport
		if *jobName != "" {
			logg.Info(ctx, fmt.Sprintf("running billing job %s", *jobName))
			report, err = service.RunJob(ctx, *jobName)
		} else {
			logg.Info(ctx, "running billing jobs once")
			report, err = service.RunOnce(ctx)
		}
		if err != nil {
			logg.Error(logg.WithField(ctx, "jobs", registry.Names()), "billing jobs failed", err)
			os.Exit(1)
		}
		if report.Skipped {
			logg.Warn(ctx, "billing lock held elsewhere; nothing ran")
		}
		return
	}

	logg.Info(ctx, "starting billing worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "billing worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "billing worker shutting down gracefully")
}

func buildRegistry(
	cfg *config.Config,
	logg *logger.Logger,
	cycles *billingcycles.Service,
	invoiceService invoices.Service,
	subscriptionService subscriptions.Service,
	usageService usage.Service,
) (*cron.Registry, error) {
	invoicing, err := cron.NewInvoicingJob(cron.InvoicingJobParams{
		Logger:    logg,
		Cycles:    cycles,
		Invoices:  invoiceService,
		BatchSize: cfg.Billing.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	overdue, err := cron.NewInvoiceOverdueJob(logg, invoiceService)
	if err != nil {
		return nil, err
	}
	endOfTerm, err := cron.NewEndOfTermJob(cron.EndOfTermJobParams{
		Logger:         logg,
		Subscriptions:  subscriptionService,
		TrialAlertDays: cfg.Billing.TrialAlertDays,
		BatchSize:      cfg.Billing.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := cron.NewCycleRefreshJob(logg, cycles)
	if err != nil {
		return nil, err
	}
	usageJob, err := cron.NewUsageJob(cron.UsageJobParams{
		Logger:    logg,
		Cycles:    cycles,
		Usage:     usageService,
		BatchSize: cfg.Billing.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	// Order matters: terms settle before cycles are invoiced, overdue marking runs last.
	return cron.NewRegistry(endOfTerm, refresh, usageJob, invoicing, overdue), nil
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s:%s", serviceKind, env)
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
