package repositories

import (
	"context"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
)

// CreditReader defines read operations for credit data
type CreditReader interface {
	// FindCreditByID retrieves a specific credit by its unique identifier,
	// without its payment history.
	FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error)

	// ListCreditsByCustomer retrieves all credits of a customer, ordered by
	// credit date ascending.
	ListCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error)

	// ListEligibleCreditsByCustomer retrieves the customer's credits with a
	// positive remaining balance, ordered by credit date ascending.
	ListEligibleCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error)
}

// PaymentApplier computes updated credits and new payment records from the
// current credit rows. CreditWriter implementations invoke it with rows read
// inside the same transaction that performs the write, so the balances it
// sees cannot change before they are persisted.
type PaymentApplier func(credits []domain.Credit) (updated []domain.Credit, payments []domain.PaymentRecord, err error)

// CreditWriter defines write operations for credit data
type CreditWriter interface {
	// SaveCredit persists a new credit; when initialPayment is non-nil it is
	// written as the first payment history entry in the same transaction.
	SaveCredit(ctx context.Context, credit domain.Credit, initialPayment *domain.PaymentRecord) error

	// UpdateCredit overwrites a credit's mutable fields, including the stored
	// derived columns. The caller must have recomputed remaining/status.
	UpdateCredit(ctx context.Context, credit domain.Credit) error

	// DeleteCredit removes a credit and its payment records.
	DeleteCredit(ctx context.Context, creditID string) error

	// ApplyToCredits reads the given credits, invokes apply on the freshly
	// read rows and persists the credits and payment records it returns, all
	// in one transaction with the rows locked against concurrent writers for
	// its whole duration. An error from apply aborts the transaction and is
	// returned unchanged. Returns ErrNotFound when any credit does not exist.
	ApplyToCredits(ctx context.Context, creditIDs []string, apply PaymentApplier) error

	// ApplyToEligibleCredits is ApplyToCredits over the customer's credits
	// with a positive remaining balance, ordered by credit date ascending.
	// apply may return no credits, in which case nothing is written.
	ApplyToEligibleCredits(ctx context.Context, customerID string, apply PaymentApplier) error
}

// PaymentReader defines read operations for payment history
type PaymentReader interface {
	// FindPaymentsByCreditID retrieves the full payment history of a credit in
	// chronological order.
	FindPaymentsByCreditID(ctx context.Context, creditID string) ([]domain.PaymentRecord, error)

	// ListPaymentsByCreditID retrieves a page of payment history using
	// token-based pagination, newest first. It returns the records and a token
	// for the next page.
	ListPaymentsByCreditID(ctx context.Context, creditID string, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error)
}

// CreditRepositoryFacade combines all credit-related repository interfaces
type CreditRepositoryFacade interface {
	CreditReader
	CreditWriter
	PaymentReader
}
