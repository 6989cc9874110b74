// Package allocation holds the pure repayment arithmetic of the ledger:
// recording a payment against a single credit and distributing a lump-sum
// payment across a customer's outstanding credits. Nothing in this package
// performs I/O or mutates its inputs; persistence is the caller's job.
package allocation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for non-positive payment amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrExceedsOutstanding is returned when a lump sum is larger than the
	// total remaining balance of the eligible credits.
	ErrExceedsOutstanding = errors.New("payment exceeds total outstanding balance")
)

// DistributionStatus classifies what a lump-sum allocation did to one credit.
type DistributionStatus string

const (
	FullyPaid      DistributionStatus = "FULLY_PAID"
	PartialPayment DistributionStatus = "PARTIAL_PAYMENT"
	NoChange       DistributionStatus = "NO_CHANGE"
)

// Entry is the per-credit breakdown of a lump-sum distribution.
type Entry struct {
	CreditID         string
	CurrentRemaining decimal.Decimal
	AmountToBePaid   decimal.Decimal
	NewRemaining     decimal.Decimal
	Status           DistributionStatus
}

// Policy orders credits for lump-sum distribution. It reports whether credit a
// should be paid down before credit b. The ordering is a business policy, not
// a technical constraint, so callers can swap it without touching the
// allocation loop.
type Policy func(a, b domain.Credit) bool

// OldestFirst clears a customer's oldest debts before newer ones, regardless
// of amount. This is the default policy.
func OldestFirst(a, b domain.Credit) bool {
	return a.CreditDate.Before(b.CreditDate)
}

// SmallestFirst clears the smallest remaining balances first.
func SmallestFirst(a, b domain.Credit) bool {
	return a.RemainingAmount.LessThan(b.RemainingAmount)
}

// Eligible filters to credits that can still receive payments
// (status UNPAID or PARTIALLY_PAID with a positive remaining balance).
func Eligible(credits []domain.Credit) []domain.Credit {
	eligible := make([]domain.Credit, 0, len(credits))
	for _, c := range credits {
		if c.IsEligibleForPayment() {
			eligible = append(eligible, c)
		}
	}
	return eligible
}

// Allocate distributes lumpSum across the eligible subset of credits in the
// order given by less (OldestFirst when nil). It returns one entry per
// eligible credit, including those the payment never reached (NO_CHANGE).
//
// Allocate is pure and deterministic: it never mutates the input credits, and
// identical inputs always yield identical output. An empty eligible set is a
// no-op, not an error.
func Allocate(lumpSum decimal.Decimal, credits []domain.Credit, less Policy) ([]Entry, error) {
	if lumpSum.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, lumpSum.String())
	}

	eligible := Eligible(credits)
	if len(eligible) == 0 {
		return []Entry{}, nil
	}

	totalOutstanding := decimal.Zero
	for _, c := range eligible {
		totalOutstanding = totalOutstanding.Add(c.RemainingAmount)
	}
	if lumpSum.GreaterThan(totalOutstanding) {
		return nil, fmt.Errorf("%w: lump sum %s, outstanding %s",
			ErrExceedsOutstanding, lumpSum.String(), totalOutstanding.String())
	}

	if less == nil {
		less = OldestFirst
	}
	// Stable sort so credits the policy considers equal keep their input order.
	sort.SliceStable(eligible, func(i, j int) bool {
		return less(eligible[i], eligible[j])
	})

	entries := make([]Entry, 0, len(eligible))
	remainingPayment := lumpSum
	for _, c := range eligible {
		amountToBePaid := decimal.Min(remainingPayment, c.RemainingAmount)
		newRemaining := c.RemainingAmount.Sub(amountToBePaid)

		status := NoChange
		if amountToBePaid.IsPositive() {
			if newRemaining.IsZero() {
				status = FullyPaid
			} else {
				status = PartialPayment
			}
		}

		entries = append(entries, Entry{
			CreditID:         c.CreditID,
			CurrentRemaining: c.RemainingAmount,
			AmountToBePaid:   amountToBePaid,
			NewRemaining:     newRemaining,
			Status:           status,
		})
		remainingPayment = remainingPayment.Sub(amountToBePaid)
	}

	return entries, nil
}

// RecordPayment applies one payment to one credit and returns the updated
// copy. The payment's RemainingAfterPayment is filled in from the credit's
// new state and the record is appended to the payment history.
//
// Overpayment is allowed (the caller decides whether to warn first); the
// resulting remaining balance is floored at zero.
func RecordPayment(credit domain.Credit, payment domain.PaymentRecord) (domain.Credit, error) {
	if payment.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.Credit{}, fmt.Errorf("%w: got %s", ErrInvalidAmount, payment.Amount.String())
	}

	updated := credit
	updated.PaidAmount = credit.PaidAmount.Add(payment.Amount)
	updated.Recalculate()

	payment.CreditID = credit.CreditID
	payment.RemainingAfterPayment = updated.RemainingAmount

	updated.Payments = make([]domain.PaymentRecord, len(credit.Payments), len(credit.Payments)+1)
	copy(updated.Payments, credit.Payments)
	updated.Payments = append(updated.Payments, payment)

	return updated, nil
}
