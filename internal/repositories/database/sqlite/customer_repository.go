package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	"github.com/DubeTracker/dube_ledger_app/internal/models"
	"github.com/DubeTracker/dube_ledger_app/internal/utils/mapping"
)

type customerRepository struct {
	db *sql.DB
}

var _ portsrepo.CustomerRepositoryFacade = (*customerRepository)(nil)

func (r *customerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	m := mapping.ToModelCustomer(customer)
	query := `
		INSERT INTO customers (customer_id, owner_user_id, name, phone, created_at, created_by, last_updated_at, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.CustomerID, m.OwnerUserID, m.Name, m.Phone,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperrors.NewAppError(409, "customer already exists", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

func (r *customerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	query := `
		SELECT customer_id, owner_user_id, name, phone, created_at, created_by, last_updated_at, last_updated_by
		FROM customers
		WHERE customer_id = ?
	`
	var m models.Customer
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&m.CustomerID, &m.OwnerUserID, &m.Name, &m.Phone,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer by ID %s: %w", customerID, err)
	}
	d := mapping.ToDomainCustomer(m)
	return &d, nil
}

func (r *customerRepository) ListCustomersByOwner(ctx context.Context, ownerUserID string, limit int, offset int) ([]domain.Customer, error) {
	query := `
		SELECT customer_id, owner_user_id, name, phone, created_at, created_by, last_updated_at, last_updated_by
		FROM customers
		WHERE owner_user_id = ?
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, ownerUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var ms []models.Customer
	for rows.Next() {
		var m models.Customer
		if err := rows.Scan(
			&m.CustomerID, &m.OwnerUserID, &m.Name, &m.Phone,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer rows: %w", err)
	}
	return mapping.ToDomainCustomerSlice(ms), nil
}

func (r *customerRepository) UpdateCustomer(ctx context.Context, customer domain.Customer) error {
	m := mapping.ToModelCustomer(customer)
	query := `
		UPDATE customers
		SET name = ?, phone = ?, last_updated_at = ?, last_updated_by = ?
		WHERE customer_id = ?
	`
	res, err := r.db.ExecContext(ctx, query, m.Name, m.Phone, m.LastUpdatedAt, m.LastUpdatedBy, m.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to update customer %s: %w", customer.CustomerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *customerRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM payment_records
		WHERE credit_id IN (SELECT credit_id FROM credits WHERE customer_id = ?)
	`, customerID); err != nil {
		return fmt.Errorf("failed to delete payment records for customer %s: %w", customerID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM credits WHERE customer_id = ?`, customerID); err != nil {
		return fmt.Errorf("failed to delete credits for customer %s: %w", customerID, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE customer_id = ?`, customerID)
	if err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", customerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
