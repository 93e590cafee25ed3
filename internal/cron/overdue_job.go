package cron

import (
	"context"
	"fmt"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

type overdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// NewInvoiceOverdueJob builds the job that flips unpaid invoices past due.
func NewInvoiceOverdueJob(logg *logger.Logger, invoices overdueMarker) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice service required")
	}
	return &invoiceOverdueJob{logg: logg, invoices: invoices}, nil
}

type invoiceOverdueJob struct {
	logg     *logger.Logger
	invoices overdueMarker
}

func (j *invoiceOverdueJob) Name() string { return "invoice-overdue" }

func (j *invoiceOverdueJob) Run(ctx context.Context) error {
	marked, err := j.invoices.MarkOverdue(ctx)
	if err != nil {
		return fmt.Errorf("mark overdue invoices: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_updated", marked), "overdue invoices marked")
	return nil
}
