package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

const defaultBatchSize = 200

type dueCycleLister interface {
	ListDue(ctx context.Context, limit int) ([]models.BillingCycle, error)
}

type cycleInvoicer interface {
	GenerateForCycle(ctx context.Context, cycleID uuid.UUID) (*models.Invoice, error)
}

// InvoicingJobParams configures the billing-cycle invoicing job.
type InvoicingJobParams struct {
	Logger    *logger.Logger
	Cycles    dueCycleLister
	Invoices  cycleInvoicer
	BatchSize int
}

// NewInvoicingJob builds the job that issues invoices for cycles due today.
func NewInvoicingJob(params InvoicingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cycles == nil {
		return nil, fmt.Errorf("billing cycle service required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice service required")
	}
	return &invoicingJob{
		logg:     params.Logger,
		cycles:   params.Cycles,
		invoices: params.Invoices,
		limit:    batchSize(params.BatchSize),
	}, nil
}

type invoicingJob struct {
	logg     *logger.Logger
	cycles   dueCycleLister
	invoices cycleInvoicer
	limit    int
}

func (j *invoicingJob) Name() string { return "billing-cycle-invoicing" }

func (j *invoicingJob) Run(ctx context.Context) error {
	cycles, err := j.cycles.ListDue(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list due cycles: %w", err)
	}
	var (
		errs     error
		issued   int
		credited int
	)
	for _, cycle := range cycles {
		invoice, err := j.invoices.GenerateForCycle(ctx, cycle.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cycle %s: %w", cycle.ID, err))
			continue
		}
		if invoice == nil {
			credited++
			continue
		}
		issued++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(cycles),
		"invoiced":   issued,
		"credited":   credited,
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "billing cycle invoicing complete")
	return errs
}

func batchSize(size int) int {
	if size <= 0 {
		return defaultBatchSize
	}
	return size
}
