package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
	"github.com/DubeTracker/dube_ledger_app/internal/middleware"
	"github.com/DubeTracker/dube_ledger_app/internal/utils"
)

// customerService implements CustomerSvcFacade.
type customerService struct {
	customerRepo portsrepo.CustomerRepositoryFacade
}

// NewCustomerService creates a new customer service.
func NewCustomerService(customerRepo portsrepo.CustomerRepositoryFacade) portssvc.CustomerSvcFacade {
	return &customerService{customerRepo: customerRepo}
}

var _ portssvc.CustomerSvcFacade = (*customerService)(nil)

// authorizeCustomer fetches the customer and verifies the requesting user owns it.
func (s *customerService) authorizeCustomer(ctx context.Context, customerID string, requestingUserID string) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.OwnerUserID != requestingUserID {
		return nil, apperrors.NewAppError(403, "customer belongs to another user", apperrors.ErrForbidden)
	}
	return customer, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, requestingUserID string) (*domain.Customer, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !utils.IsEthiopianPhone(req.Phone) {
		return nil, apperrors.NewAppError(400, "phone must be a valid Ethiopian number", apperrors.ErrValidation)
	}

	now := time.Now()
	customer := domain.Customer{
		CustomerID:  uuid.NewString(),
		OwnerUserID: requestingUserID,
		Name:        req.Name,
		Phone:       req.Phone,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}

	if err := s.customerRepo.SaveCustomer(ctx, customer); err != nil {
		logger.Error("failed to save customer", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	logger.Info("customer created", slog.String("customer_id", customer.CustomerID))
	return &customer, nil
}

func (s *customerService) GetCustomerByID(ctx context.Context, customerID string, requestingUserID string) (*domain.Customer, error) {
	return s.authorizeCustomer(ctx, customerID, requestingUserID)
}

func (s *customerService) ListCustomers(ctx context.Context, requestingUserID string, limit, offset int) ([]domain.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	customers, err := s.customerRepo.ListCustomersByOwner(ctx, requestingUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID string, req dto.UpdateCustomerRequest, requestingUserID string) (*domain.Customer, error) {
	customer, err := s.authorizeCustomer(ctx, customerID, requestingUserID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil {
		if !utils.IsEthiopianPhone(*req.Phone) {
			return nil, apperrors.NewAppError(400, "phone must be a valid Ethiopian number", apperrors.ErrValidation)
		}
		customer.Phone = *req.Phone
	}
	customer.LastUpdatedAt = time.Now()
	customer.LastUpdatedBy = requestingUserID

	if err := s.customerRepo.UpdateCustomer(ctx, *customer); err != nil {
		return nil, fmt.Errorf("failed to update customer %s: %w", customerID, err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID string, requestingUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.authorizeCustomer(ctx, customerID, requestingUserID); err != nil {
		return err
	}
	if err := s.customerRepo.DeleteCustomer(ctx, customerID); err != nil {
		logger.Error("failed to delete customer", slog.String("customer_id", customerID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete customer %s: %w", customerID, err)
	}

	logger.Info("customer deleted with all credits", slog.String("customer_id", customerID))
	return nil
}
