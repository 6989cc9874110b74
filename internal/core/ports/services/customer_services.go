package services

import (
	"context"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	"github.com/DubeTracker/dube_ledger_app/internal/dto"
)

// CustomerReaderSvc defines read operations for customer data
type CustomerReaderSvc interface {
	// GetCustomerByID retrieves a specific customer by ID. Only the owning
	// user may read it.
	GetCustomerByID(ctx context.Context, customerID string, requestingUserID string) (*domain.Customer, error)

	// ListCustomers retrieves a paginated list of the requesting user's customers.
	ListCustomers(ctx context.Context, requestingUserID string, limit, offset int) ([]domain.Customer, error)
}

// CustomerWriterSvc defines write operations for customer data
type CustomerWriterSvc interface {
	// CreateCustomer registers a new customer under the requesting user.
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, requestingUserID string) (*domain.Customer, error)

	// UpdateCustomer updates a customer's name or phone.
	UpdateCustomer(ctx context.Context, customerID string, req dto.UpdateCustomerRequest, requestingUserID string) (*domain.Customer, error)

	// DeleteCustomer removes a customer and all of their credits and payment
	// history in one transaction.
	DeleteCustomer(ctx context.Context, customerID string, requestingUserID string) error
}

// CustomerSvcFacade combines all customer-related service interfaces
type CustomerSvcFacade interface {
	CustomerReaderSvc
	CustomerWriterSvc
}
