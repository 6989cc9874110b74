package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credit is the database representation of a credit.
// remaining_amount and status are stored derived columns; every write path
// recomputes them from total_amount/paid_amount before persisting.
type Credit struct {
	CreditID        string          `db:"credit_id"`
	CustomerID      string          `db:"customer_id"`
	Item            string          `db:"item"`
	Remarks         string          `db:"remarks"`
	CreditDate      time.Time       `db:"credit_date"`
	Images          []string        `db:"images"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	PaidAmount      decimal.Decimal `db:"paid_amount"`
	RemainingAmount decimal.Decimal `db:"remaining_amount"`
	Status          string          `db:"status"`
	AuditFields
}
