package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is one entry in a credit's append-only payment history.
type PaymentRecord struct {
	PaymentID   string          `json:"paymentID"` // Primary Key (UUID)
	CreditID    string          `json:"creditID"`  // FK -> credits.credit_id (Not Null)
	Amount      decimal.Decimal `json:"amount"`    // Positive; the increment applied at this event
	PaymentDate time.Time       `json:"paymentDate"`
	// RemainingAfterPayment snapshots the credit's remaining balance immediately
	// after this payment was applied. It is an audit value and is never re-derived.
	RemainingAfterPayment decimal.Decimal `json:"remainingAfterPayment"`
	Note                  string          `json:"note"` // Nullable free text
	AuditFields
}
