package invoices

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

const numberPrefix = "INV"

// FormatNumber renders a yearly sequence as INV-YYYY-NNNNNN.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s%06d", yearPrefix(year), seq)
}

// ParseSequence extracts the sequence of an invoice number issued in year.
func ParseSequence(number string, year int) (int, error) {
	prefix := yearPrefix(year)
	if !strings.HasPrefix(number, prefix) {
		return 0, fmt.Errorf("invoice number %q is not from %d", number, year)
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || seq < 1 {
		return 0, fmt.Errorf("invalid invoice number %q", number)
	}
	return seq, nil
}

func yearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", numberPrefix, year)
}

// GenerateInvoiceNumber returns the number following the highest one issued in year.
func (s *service) GenerateInvoiceNumber(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	latest, err := s.repo.WithTx(tx).LatestNumberWithPrefix(ctx, yearPrefix(year))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read latest invoice number")
	}
	if latest == "" {
		return FormatNumber(year, 1), nil
	}
	seq, err := ParseSequence(latest, year)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse latest invoice number")
	}
	return FormatNumber(year, seq+1), nil
}

// insert numbers and stores the invoice. Each attempt runs in its own savepoint
// so a number collision with a concurrent writer only rolls back that insert.
func (s *service) insert(ctx context.Context, tx *gorm.DB, invoice *models.Invoice) error {
	repo := s.repo.WithTx(tx)
	year := invoice.InvoiceDate.Year()
	for attempt := 1; attempt <= s.numberAttempts; attempt++ {
		number, err := s.GenerateInvoiceNumber(ctx, tx, year)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		savepoint := fmt.Sprintf("invoice_number_%d", attempt)
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create savepoint")
		}
		err = repo.Create(ctx, invoice)
		if err == nil {
			return nil
		}
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, rbErr, "rollback savepoint")
		}
		if !isNumberCollision(err) {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "billing cycle already invoiced")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"invoice_number": number,
			"attempt":        attempt,
		})
		s.logg.Warn(logCtx, "invoice number collision")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "could not allocate invoice number").
		WithDetails(map[string]any{"attempts": s.numberAttempts})
}

// isNumberCollision matches the Postgres constraint name or the SQLite column reference.
func isNumberCollision(err error) bool {
	return db.IsUniqueViolation(err, models.InvoiceNumberIndex) ||
		db.IsUniqueViolation(err, "invoices.invoice_number")
}
