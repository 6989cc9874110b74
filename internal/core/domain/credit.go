package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditStatus indicates the repayment state of a credit.
// It is a pure function of TotalAmount and PaidAmount; see DeriveStatus.
type CreditStatus string

const (
	StatusUnpaid        CreditStatus = "UNPAID"
	StatusPartiallyPaid CreditStatus = "PARTIALLY_PAID"
	StatusPaid          CreditStatus = "PAID"
)

// Credit represents one sale-on-credit transaction owed by a customer.
type Credit struct {
	CreditID   string    `json:"creditID"`   // Primary Key (UUID)
	CustomerID string    `json:"customerID"` // FK -> customers.customer_id (Not Null)
	Item       string    `json:"item"`       // Free text description of what was sold
	Remarks    string    `json:"remarks"`    // Nullable free text
	CreditDate time.Time `json:"creditDate"` // When the sale happened; immutable after creation
	Images     []string  `json:"images"`     // Opaque attachment references

	TotalAmount decimal.Decimal `json:"totalAmount"` // Positive; fixed at creation
	PaidAmount  decimal.Decimal `json:"paidAmount"`  // Non-negative; only grows via payments

	// RemainingAmount and Status are derived from TotalAmount/PaidAmount and
	// stored for query efficiency. Every mutation path must recompute them
	// via Recalculate; reads may trust the stored values.
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	Status          CreditStatus    `json:"status"`

	// Payments is the append-only payment history in chronological order.
	Payments []PaymentRecord `json:"payments,omitempty"`

	AuditFields
}

// DeriveStatus returns the repayment status for the given totals.
// Overpayment is treated as fully paid.
func DeriveStatus(totalAmount, paidAmount decimal.Decimal) CreditStatus {
	switch {
	case paidAmount.GreaterThanOrEqual(totalAmount):
		return StatusPaid
	case paidAmount.LessThanOrEqual(decimal.Zero):
		return StatusUnpaid
	default:
		return StatusPartiallyPaid
	}
}

// RemainingBalance returns total minus paid, floored at zero.
func RemainingBalance(totalAmount, paidAmount decimal.Decimal) decimal.Decimal {
	remaining := totalAmount.Sub(paidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Recalculate refreshes RemainingAmount and Status from the stored totals.
// It must be called after any change to TotalAmount or PaidAmount.
func (c *Credit) Recalculate() {
	c.RemainingAmount = RemainingBalance(c.TotalAmount, c.PaidAmount)
	c.Status = DeriveStatus(c.TotalAmount, c.PaidAmount)
}

// IsEligibleForPayment reports whether the credit can still receive payments,
// i.e. it has a positive remaining balance.
func (c *Credit) IsEligibleForPayment() bool {
	return c.Status != StatusPaid && c.RemainingAmount.IsPositive()
}
