package models

import "time"

const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusFailed    = "failed"
	InvoiceStatusPastDue   = "past_due"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusRefunded  = "refunded"
)

// InvoicePendingStatuses are the statuses in which an invoice still
// awaits payment. A transaction with a pending invoice never gets a
// second one.
var InvoicePendingStatuses = []string{InvoiceStatusDraft, InvoiceStatusPastDue}

// Invoice is a settlement request for one transaction leg's payer.
// ReferenceNo is assigned once at creation and immutable thereafter.
type Invoice struct {
	Id            string     `db:"id"`
	TransactionId string     `db:"transaction_id"`
	UserId        string     `db:"user_id"`
	Amount        int64      `db:"amount"`
	Currency      string     `db:"currency"`
	Status        string     `db:"status"`
	ReferenceNo   string     `db:"reference_no"`
	DueDate       *time.Time `db:"due_date"`
	PaidAt        *time.Time `db:"paid_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

func (i *Invoice) IsPending() bool {
	for _, status := range InvoicePendingStatuses {
		if i.Status == status {
			return true
		}
	}
	return false
}
