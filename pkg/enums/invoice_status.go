package enums

// InvoiceStatus is the state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusVoid      InvoiceStatus = "void"
)

var invoiceStatuses = newSet("invoice status",
	InvoiceStatusDraft,
	InvoiceStatusPending,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
	InvoiceStatusVoid,
)

func (i InvoiceStatus) String() string {
	return string(i)
}

func (i InvoiceStatus) IsValid() bool {
	return invoiceStatuses.contains(i)
}

func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	return invoiceStatuses.parse(value)
}

// AcceptsPayment reports whether a payment may be applied in this status.
// Drafts must be issued or sent first.
func (i InvoiceStatus) AcceptsPayment() bool {
	switch i {
	case InvoiceStatusPending, InvoiceStatusSent, InvoiceStatusOverdue:
		return true
	default:
		return false
	}
}

// IsFinal reports whether the invoice can no longer change.
func (i InvoiceStatus) IsFinal() bool {
	switch i {
	case InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusVoid:
		return true
	default:
		return false
	}
}
