package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/pagination"
)

// Repository handles invoice persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	SaveIfStatus(ctx context.Context, invoice *models.Invoice, expected enums.InvoiceStatus) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)
	FindByCycle(ctx context.Context, cycleID uuid.UUID) (*models.Invoice, error)
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Invoice, error)
	ListOverdue(ctx context.Context, limit int) ([]models.Invoice, error)
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
	DeleteDraft(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// SaveIfStatus writes the invoice only while its stored status still equals expected.
func (r *repository) SaveIfStatus(ctx context.Context, invoice *models.Invoice, expected enums.InvoiceStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoice.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(invoice)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	return r.findOne(ctx, "invoice_number = ?", number)
}

func (r *repository) FindByCycle(ctx context.Context, cycleID uuid.UUID) (*models.Invoice, error) {
	return r.findOne(ctx, "billing_cycle_id = ?", cycleID)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Where(query, args...).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// LatestNumberWithPrefix returns the highest invoice number sharing prefix, or "".
// Sequences are zero padded so the lexical maximum is the numeric one.
func (r *repository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *repository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	query := r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID)
	if err := pagination.Keyset(query, cursor, limit).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ListOverdue(ctx context.Context, limit int) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.InvoiceStatusOverdue).
		Order("due_date ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// MarkOverdue flips unpaid pending or sent invoices past their due date.
func (r *repository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status IN ?", []enums.InvoiceStatus{enums.InvoiceStatusPending, enums.InvoiceStatusSent}).
		Where("due_date < ? AND amount_due > ?", today, 0).
		Update("status", enums.InvoiceStatusOverdue)
	return res.RowsAffected, res.Error
}

// DeleteDraft hard-deletes the invoice only while it is a draft.
func (r *repository) DeleteDraft(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, enums.InvoiceStatusDraft).
		Delete(&models.Invoice{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
