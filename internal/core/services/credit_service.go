package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/allocation"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
	"github.com/DubeTracker/dube_ledger_app/internal/middleware"
)

// creditService implements CreditSvcFacade. It owns every mutation of credit
// balances: all paths that change PaidAmount go through the pure allocation
// package and then persist the recomputed derived fields, so the stored
// remaining/status columns never drift from the totals.
type creditService struct {
	creditRepo   portsrepo.CreditRepositoryFacade
	customerRepo portsrepo.CustomerRepositoryFacade
}

// NewCreditService creates a new credit service.
func NewCreditService(creditRepo portsrepo.CreditRepositoryFacade, customerRepo portsrepo.CustomerRepositoryFacade) portssvc.CreditSvcFacade {
	return &creditService{
		creditRepo:   creditRepo,
		customerRepo: customerRepo,
	}
}

var _ portssvc.CreditSvcFacade = (*creditService)(nil)

// authorizeCustomer verifies the requesting user owns the customer.
func (s *creditService) authorizeCustomer(ctx context.Context, customerID string, requestingUserID string) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.OwnerUserID != requestingUserID {
		return nil, apperrors.NewAppError(403, "customer belongs to another user", apperrors.ErrForbidden)
	}
	return customer, nil
}

// authorizeCredit fetches the credit and verifies ownership via its customer.
func (s *creditService) authorizeCredit(ctx context.Context, creditID string, requestingUserID string) (*domain.Credit, error) {
	credit, err := s.creditRepo.FindCreditByID(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeCustomer(ctx, credit.CustomerID, requestingUserID); err != nil {
		return nil, err
	}
	return credit, nil
}

func (s *creditService) CreateCredit(ctx context.Context, customerID string, req dto.CreateCreditRequest, requestingUserID string) (*domain.Credit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.authorizeCustomer(ctx, customerID, requestingUserID); err != nil {
		return nil, err
	}
	if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewAppError(400, "totalAmount must be positive", apperrors.ErrValidation)
	}

	now := time.Now()
	creditDate := now
	if req.CreditDate != nil {
		creditDate = *req.CreditDate
	}

	credit := domain.Credit{
		CreditID:    uuid.NewString(),
		CustomerID:  customerID,
		Item:        req.Item,
		Remarks:     req.Remarks,
		CreditDate:  creditDate,
		Images:      req.Images,
		TotalAmount: req.TotalAmount,
		PaidAmount:  decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}
	credit.Recalculate()

	// A down payment at the time of sale becomes the first history entry.
	var initialPayment *domain.PaymentRecord
	if req.InitialPayment != nil && req.InitialPayment.IsPositive() {
		if req.InitialPayment.GreaterThan(req.TotalAmount) {
			return nil, apperrors.NewAppError(400, "initial payment cannot exceed total amount", apperrors.ErrValidation)
		}
		record := domain.PaymentRecord{
			PaymentID:   uuid.NewString(),
			CreditID:    credit.CreditID,
			Amount:      *req.InitialPayment,
			PaymentDate: now,
			Note:        req.InitialPaymentNote,
			AuditFields: credit.AuditFields,
		}
		updated, err := allocation.RecordPayment(credit, record)
		if err != nil {
			return nil, apperrors.NewAppError(400, "invalid initial payment", err)
		}
		credit = updated
		initialPayment = &credit.Payments[len(credit.Payments)-1]
	}

	if err := s.creditRepo.SaveCredit(ctx, credit, initialPayment); err != nil {
		logger.Error("failed to save credit", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create credit: %w", err)
	}

	logger.Info("credit created",
		slog.String("credit_id", credit.CreditID),
		slog.String("customer_id", customerID),
		slog.String("total_amount", credit.TotalAmount.String()),
	)
	return &credit, nil
}

func (s *creditService) GetCreditByID(ctx context.Context, creditID string, withPayments bool, requestingUserID string) (*domain.Credit, error) {
	credit, err := s.authorizeCredit(ctx, creditID, requestingUserID)
	if err != nil {
		return nil, err
	}
	if withPayments {
		payments, err := s.creditRepo.FindPaymentsByCreditID(ctx, creditID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payment history for credit %s: %w", creditID, err)
		}
		credit.Payments = payments
	}
	return credit, nil
}

func (s *creditService) ListCreditsByCustomer(ctx context.Context, customerID string, requestingUserID string) ([]domain.Credit, error) {
	if _, err := s.authorizeCustomer(ctx, customerID, requestingUserID); err != nil {
		return nil, err
	}
	credits, err := s.creditRepo.ListCreditsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits for customer %s: %w", customerID, err)
	}
	return credits, nil
}

func (s *creditService) ListPayments(ctx context.Context, creditID string, limit int, nextToken *string, requestingUserID string) ([]domain.PaymentRecord, *string, error) {
	if _, err := s.authorizeCredit(ctx, creditID, requestingUserID); err != nil {
		return nil, nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	payments, token, err := s.creditRepo.ListPaymentsByCreditID(ctx, creditID, limit, nextToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list payments for credit %s: %w", creditID, err)
	}
	return payments, token, nil
}

// UpdateCredit directly edits a credit. This is the correction path for data
// entry mistakes; it recomputes the derived fields but appends no payment
// record, so the payment history stays an honest log of actual payments.
func (s *creditService) UpdateCredit(ctx context.Context, creditID string, req dto.UpdateCreditRequest, requestingUserID string) (*domain.Credit, error) {
	credit, err := s.authorizeCredit(ctx, creditID, requestingUserID)
	if err != nil {
		return nil, err
	}

	if req.Item != nil {
		credit.Item = *req.Item
	}
	if req.Remarks != nil {
		credit.Remarks = *req.Remarks
	}
	if req.Images != nil {
		credit.Images = req.Images
	}
	if req.TotalAmount != nil {
		if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.NewAppError(400, "totalAmount must be positive", apperrors.ErrValidation)
		}
		credit.TotalAmount = *req.TotalAmount
	}
	if req.PaidAmount != nil {
		if req.PaidAmount.IsNegative() {
			return nil, apperrors.NewAppError(400, "paidAmount cannot be negative", apperrors.ErrValidation)
		}
		credit.PaidAmount = *req.PaidAmount
	}
	credit.Recalculate()
	credit.LastUpdatedAt = time.Now()
	credit.LastUpdatedBy = requestingUserID

	if err := s.creditRepo.UpdateCredit(ctx, *credit); err != nil {
		return nil, fmt.Errorf("failed to update credit %s: %w", creditID, err)
	}
	return credit, nil
}

func (s *creditService) DeleteCredit(ctx context.Context, creditID string, requestingUserID string) error {
	if _, err := s.authorizeCredit(ctx, creditID, requestingUserID); err != nil {
		return err
	}
	if err := s.creditRepo.DeleteCredit(ctx, creditID); err != nil {
		return fmt.Errorf("failed to delete credit %s: %w", creditID, err)
	}
	return nil
}

func (s *creditService) RecordPayment(ctx context.Context, creditID string, amount decimal.Decimal, note string, requestingUserID string) (*domain.Credit, *domain.PaymentRecord, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.authorizeCredit(ctx, creditID, requestingUserID); err != nil {
		return nil, nil, false, err
	}

	now := time.Now()
	var (
		updated     domain.Credit
		saved       domain.PaymentRecord
		overpayment bool
	)
	// The balance is re-read under the repository's row lock. Computing from
	// the authorization read would let another payment land between that read
	// and the write and be silently overwritten.
	apply := func(credits []domain.Credit) ([]domain.Credit, []domain.PaymentRecord, error) {
		credit := credits[0]
		record := domain.PaymentRecord{
			PaymentID:   uuid.NewString(),
			CreditID:    creditID,
			Amount:      amount,
			PaymentDate: now,
			Note:        note,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     requestingUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: requestingUserID,
			},
		}
		overpayment = amount.GreaterThan(credit.RemainingAmount)

		up, err := allocation.RecordPayment(credit, record)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid payment", err)
		}
		up.LastUpdatedAt = now
		up.LastUpdatedBy = requestingUserID

		updated = up
		saved = up.Payments[len(up.Payments)-1]
		return []domain.Credit{updated}, []domain.PaymentRecord{saved}, nil
	}

	if err := s.creditRepo.ApplyToCredits(ctx, []string{creditID}, apply); err != nil {
		if errors.Is(err, allocation.ErrInvalidAmount) {
			return nil, nil, false, err
		}
		logger.Error("failed to persist payment",
			slog.String("credit_id", creditID), slog.String("error", err.Error()))
		return nil, nil, false, fmt.Errorf("failed to record payment on credit %s: %w", creditID, err)
	}

	logger.Info("payment recorded",
		slog.String("credit_id", creditID),
		slog.String("amount", amount.String()),
		slog.Bool("overpayment", overpayment),
	)
	return &updated, &saved, overpayment, nil
}

// resolvePolicy maps the request's policy name to a comparator.
func resolvePolicy(policy string) (allocation.Policy, error) {
	switch policy {
	case "", "oldest_first":
		return allocation.OldestFirst, nil
	case "smallest_first":
		return allocation.SmallestFirst, nil
	default:
		return nil, apperrors.NewAppError(400, fmt.Sprintf("unknown distribution policy %q", policy), apperrors.ErrValidation)
	}
}

func (s *creditService) PreviewBulkPayment(ctx context.Context, customerID string, amount decimal.Decimal, policy string, requestingUserID string) ([]allocation.Entry, error) {
	if _, err := s.authorizeCustomer(ctx, customerID, requestingUserID); err != nil {
		return nil, err
	}
	less, err := resolvePolicy(policy)
	if err != nil {
		return nil, err
	}

	eligible, err := s.creditRepo.ListEligibleCreditsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible credits for customer %s: %w", customerID, err)
	}

	entries, err := allocation.Allocate(amount, eligible, less)
	if err != nil {
		return nil, apperrors.NewAppError(400, "cannot distribute payment", err)
	}
	return entries, nil
}

// ApplyBulkPayment distributes the lump sum over the customer's eligible
// credits and persists every touched credit with its payment record in one
// transaction. The allocation runs against the rows locked inside that
// transaction rather than an earlier read or a client-held preview, so a
// stale preview or a concurrent payment can never write stale balances.
func (s *creditService) ApplyBulkPayment(ctx context.Context, customerID string, amount decimal.Decimal, note string, policy string, requestingUserID string) ([]allocation.Entry, []domain.PaymentRecord, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.authorizeCustomer(ctx, customerID, requestingUserID); err != nil {
		return nil, nil, err
	}
	less, err := resolvePolicy(policy)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	var (
		entries []allocation.Entry
		records []domain.PaymentRecord
	)
	apply := func(eligible []domain.Credit) ([]domain.Credit, []domain.PaymentRecord, error) {
		allocated, err := allocation.Allocate(amount, eligible, less)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "cannot distribute payment", err)
		}
		entries = allocated

		byID := make(map[string]domain.Credit, len(eligible))
		for _, c := range eligible {
			byID[c.CreditID] = c
		}

		var updatedCredits []domain.Credit
		for _, entry := range allocated {
			if !entry.AmountToBePaid.IsPositive() {
				continue
			}
			credit := byID[entry.CreditID]
			record := domain.PaymentRecord{
				PaymentID:   uuid.NewString(),
				CreditID:    entry.CreditID,
				Amount:      entry.AmountToBePaid,
				PaymentDate: now,
				Note:        note,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     requestingUserID,
					LastUpdatedAt: now,
					LastUpdatedBy: requestingUserID,
				},
			}
			updated, err := allocation.RecordPayment(credit, record)
			if err != nil {
				return nil, nil, apperrors.NewAppError(400, "invalid distribution entry", err)
			}
			updated.LastUpdatedAt = now
			updated.LastUpdatedBy = requestingUserID

			updatedCredits = append(updatedCredits, updated)
			records = append(records, updated.Payments[len(updated.Payments)-1])
		}
		return updatedCredits, records, nil
	}

	if err := s.creditRepo.ApplyToEligibleCredits(ctx, customerID, apply); err != nil {
		if errors.Is(err, allocation.ErrInvalidAmount) || errors.Is(err, allocation.ErrExceedsOutstanding) {
			return nil, nil, err
		}
		logger.Error("failed to apply bulk payment",
			slog.String("customer_id", customerID), slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to apply bulk payment for customer %s: %w", customerID, err)
	}

	logger.Info("bulk payment applied",
		slog.String("customer_id", customerID),
		slog.String("lump_sum", amount.String()),
		slog.Int("credits_touched", len(records)),
	)
	return entries, records, nil
}
