package services

import (
	"context"

	"github.com/DubeTracker/dube_ledger_app/internal/core/allocation"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// CreditReaderSvc defines read operations for credit data
type CreditReaderSvc interface {
	// GetCreditByID retrieves a credit, optionally including its payment history.
	GetCreditByID(ctx context.Context, creditID string, withPayments bool, requestingUserID string) (*domain.Credit, error)

	// ListCreditsByCustomer retrieves all credits of a customer, oldest first.
	ListCreditsByCustomer(ctx context.Context, customerID string, requestingUserID string) ([]domain.Credit, error)

	// ListPayments retrieves a page of a credit's payment history, newest first.
	ListPayments(ctx context.Context, creditID string, limit int, nextToken *string, requestingUserID string) ([]domain.PaymentRecord, *string, error)
}

// CreditWriterSvc defines write operations for credit data
type CreditWriterSvc interface {
	// CreateCredit records a new sale on credit, with an optional down payment.
	CreateCredit(ctx context.Context, customerID string, req dto.CreateCreditRequest, requestingUserID string) (*domain.Credit, error)

	// UpdateCredit directly edits a credit's fields and recomputes its derived
	// remaining/status. It appends no payment record.
	UpdateCredit(ctx context.Context, creditID string, req dto.UpdateCreditRequest, requestingUserID string) (*domain.Credit, error)

	// DeleteCredit removes a credit and its payment history.
	DeleteCredit(ctx context.Context, creditID string, requestingUserID string) error
}

// PaymentSvc defines payment recording operations
type PaymentSvc interface {
	// RecordPayment applies a single payment against one credit. Overpayment
	// is allowed; the remaining balance floors at zero and the returned flag
	// reports whether the amount exceeded what was owed.
	RecordPayment(ctx context.Context, creditID string, amount decimal.Decimal, note string, requestingUserID string) (*domain.Credit, *domain.PaymentRecord, bool, error)

	// PreviewBulkPayment computes how a lump sum would distribute across a
	// customer's outstanding credits without persisting anything.
	PreviewBulkPayment(ctx context.Context, customerID string, amount decimal.Decimal, policy string, requestingUserID string) ([]allocation.Entry, error)

	// ApplyBulkPayment distributes a lump sum across a customer's outstanding
	// credits and persists the updated balances together with the new payment
	// records in one transaction.
	ApplyBulkPayment(ctx context.Context, customerID string, amount decimal.Decimal, note string, policy string, requestingUserID string) ([]allocation.Entry, []domain.PaymentRecord, error)
}

// CreditSvcFacade combines all credit-related service interfaces
type CreditSvcFacade interface {
	CreditReaderSvc
	CreditWriterSvc
	PaymentSvc
}
