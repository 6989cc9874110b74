package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is the database representation of one payment history entry.
type PaymentRecord struct {
	PaymentID             string          `db:"payment_id"`
	CreditID              string          `db:"credit_id"`
	Amount                decimal.Decimal `db:"amount"`
	PaymentDate           time.Time       `db:"payment_date"`
	RemainingAfterPayment decimal.Decimal `db:"remaining_after_payment"`
	Note                  string          `db:"note"`
	AuditFields
}
