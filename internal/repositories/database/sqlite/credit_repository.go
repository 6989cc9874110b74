package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	"github.com/DubeTracker/dube_ledger_app/internal/models"
	"github.com/DubeTracker/dube_ledger_app/internal/utils/mapping"
	"github.com/DubeTracker/dube_ledger_app/internal/utils/pagination"
)

type creditRepository struct {
	db *sql.DB
}

var _ portsrepo.CreditRepositoryFacade = (*creditRepository)(nil)

const creditColumns = `credit_id, customer_id, item, remarks, credit_date, images, total_amount, paid_amount, remaining_amount, status, created_at, created_by, last_updated_at, last_updated_by`

// encodeImages serializes the attachment references as a JSON array; SQLite
// has no native array type.
func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(b), nil
}

func decodeImages(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if len(images) == 0 {
		return nil, nil
	}
	return images, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredit(row rowScanner) (models.Credit, error) {
	var m models.Credit
	var rawImages string
	err := row.Scan(
		&m.CreditID,
		&m.CustomerID,
		&m.Item,
		&m.Remarks,
		&m.CreditDate,
		&rawImages,
		&m.TotalAmount,
		&m.PaidAmount,
		&m.RemainingAmount,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return m, err
	}
	m.Images, err = decodeImages(rawImages)
	return m, err
}

func (r *creditRepository) queryCredits(ctx context.Context, query string, args ...any) ([]domain.Credit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credits: %w", err)
	}
	defer rows.Close()

	var ms []models.Credit
	for rows.Next() {
		m, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit rows: %w", err)
	}
	return mapping.ToDomainCreditSlice(ms), nil
}

func insertPaymentRecord(ctx context.Context, tx *sql.Tx, m models.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (payment_id, credit_id, amount, payment_date, remaining_after_payment, note, created_at, created_by, last_updated_at, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		m.PaymentID, m.CreditID, m.Amount, m.PaymentDate, m.RemainingAfterPayment, m.Note,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return err
}

func (r *creditRepository) SaveCredit(ctx context.Context, credit domain.Credit, initialPayment *domain.PaymentRecord) error {
	m := mapping.ToModelCredit(credit)
	rawImages, err := encodeImages(m.Images)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO credits (` + creditColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		m.CreditID, m.CustomerID, m.Item, m.Remarks, m.CreditDate, rawImages,
		m.TotalAmount, m.PaidAmount, m.RemainingAmount, m.Status,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	); err != nil {
		return fmt.Errorf("failed to insert credit %s: %w", m.CreditID, err)
	}

	if initialPayment != nil {
		if err := insertPaymentRecord(ctx, tx, mapping.ToModelPaymentRecord(*initialPayment)); err != nil {
			return fmt.Errorf("failed to insert initial payment for credit %s: %w", m.CreditID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *creditRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE credit_id = ?`
	m, err := scanCredit(r.db.QueryRowContext(ctx, query, creditID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find credit by ID %s: %w", creditID, err)
	}
	d := mapping.ToDomainCredit(m)
	return &d, nil
}

func (r *creditRepository) ListCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE customer_id = ?
		ORDER BY credit_date ASC, created_at ASC
	`
	return r.queryCredits(ctx, query, customerID)
}

func (r *creditRepository) ListEligibleCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error) {
	// Amounts are stored as TEXT; CAST forces a numeric comparison.
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE customer_id = ? AND CAST(remaining_amount AS REAL) > 0
		ORDER BY credit_date ASC, created_at ASC
	`
	return r.queryCredits(ctx, query, customerID)
}

func (r *creditRepository) UpdateCredit(ctx context.Context, credit domain.Credit) error {
	m := mapping.ToModelCredit(credit)
	rawImages, err := encodeImages(m.Images)
	if err != nil {
		return err
	}
	query := `
		UPDATE credits
		SET item = ?, remarks = ?, images = ?, total_amount = ?, paid_amount = ?,
		    remaining_amount = ?, status = ?, last_updated_at = ?, last_updated_by = ?
		WHERE credit_id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		m.Item, m.Remarks, rawImages, m.TotalAmount, m.PaidAmount,
		m.RemainingAmount, m.Status, m.LastUpdatedAt, m.LastUpdatedBy, m.CreditID,
	)
	if err != nil {
		return fmt.Errorf("failed to update credit %s: %w", credit.CreditID, err)
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

func (r *creditRepository) DeleteCredit(ctx context.Context, creditID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_records WHERE credit_id = ?`, creditID); err != nil {
		return fmt.Errorf("failed to delete payment records for credit %s: %w", creditID, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM credits WHERE credit_id = ?`, creditID)
	if err != nil {
		return fmt.Errorf("failed to delete credit %s: %w", creditID, err)
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

// ApplyToCredits re-reads the given credits inside a write transaction, hands
// the fresh rows to apply and persists what it returns. The connection opens
// transactions as BEGIN IMMEDIATE, so the write lock is held from the first
// read and a concurrent writer waits on the busy timeout rather than reading
// a balance that is about to change.
func (r *creditRepository) ApplyToCredits(ctx context.Context, creditIDs []string, apply portsrepo.PaymentApplier) error {
	if len(creditIDs) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(creditIDs))
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE credit_id IN (` + placeholders[:len(placeholders)-1] + `)
		ORDER BY credit_id
	`
	args := make([]any, len(creditIDs))
	for i, id := range creditIDs {
		args[i] = id
	}
	return r.applyLocked(ctx, query, args, len(creditIDs), apply)
}

// ApplyToEligibleCredits is ApplyToCredits over the customer's open credits,
// read oldest first.
func (r *creditRepository) ApplyToEligibleCredits(ctx context.Context, customerID string, apply portsrepo.PaymentApplier) error {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE customer_id = ? AND CAST(remaining_amount AS REAL) > 0
		ORDER BY credit_date ASC, created_at ASC
	`
	return r.applyLocked(ctx, query, []any{customerID}, -1, apply)
}

func (r *creditRepository) applyLocked(ctx context.Context, readQuery string, readArgs []any, expected int, apply portsrepo.PaymentApplier) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, readQuery, readArgs...)
	if err != nil {
		return fmt.Errorf("failed to read credits for update: %w", err)
	}
	var ms []models.Credit
	for rows.Next() {
		m, err := scanCredit(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan credit row: %w", err)
		}
		ms = append(ms, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating credit rows: %w", err)
	}
	if expected >= 0 && len(ms) != expected {
		return apperrors.NewAppError(404, "one or more credits no longer exist", apperrors.ErrNotFound)
	}

	credits, payments, err := apply(mapping.ToDomainCreditSlice(ms))
	if err != nil {
		return err
	}
	if len(credits) == 0 {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	updateQuery := `
		UPDATE credits
		SET paid_amount = ?, remaining_amount = ?, status = ?, last_updated_at = ?, last_updated_by = ?
		WHERE credit_id = ?
	`
	for _, c := range credits {
		m := mapping.ToModelCredit(c)
		res, err := tx.ExecContext(ctx, updateQuery,
			m.PaidAmount, m.RemainingAmount, m.Status, m.LastUpdatedAt, m.LastUpdatedBy, m.CreditID,
		)
		if err != nil {
			return fmt.Errorf("failed to update credit %s: %w", c.CreditID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if affected == 0 {
			return apperrors.NewAppError(404, "credit "+c.CreditID+" no longer exists", apperrors.ErrNotFound)
		}
	}

	for _, p := range payments {
		if err := insertPaymentRecord(ctx, tx, mapping.ToModelPaymentRecord(p)); err != nil {
			return fmt.Errorf("failed to insert payment record %s: %w", p.PaymentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const paymentColumns = `payment_id, credit_id, amount, payment_date, remaining_after_payment, note, created_at, created_by, last_updated_at, last_updated_by`

func scanPaymentRows(rows *sql.Rows) ([]models.PaymentRecord, error) {
	var ms []models.PaymentRecord
	for rows.Next() {
		var m models.PaymentRecord
		if err := rows.Scan(
			&m.PaymentID, &m.CreditID, &m.Amount, &m.PaymentDate, &m.RemainingAfterPayment, &m.Note,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return ms, nil
}

func (r *creditRepository) FindPaymentsByCreditID(ctx context.Context, creditID string) ([]domain.PaymentRecord, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE credit_id = ?
		ORDER BY payment_date ASC, created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, creditID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for credit %s: %w", creditID, err)
	}
	defer rows.Close()

	ms, err := scanPaymentRows(rows)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentRecordSlice(ms), nil
}

func (r *creditRepository) ListPaymentsByCreditID(ctx context.Context, creditID string, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE credit_id = ?
	`
	args := []any{creditID}

	if nextToken != nil && *nextToken != "" {
		paymentDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid pagination token", err)
		}
		query += ` AND (payment_date < ? OR (payment_date = ? AND created_at < ?))`
		args = append(args, paymentDate, paymentDate, createdAt)
	}

	query += ` ORDER BY payment_date DESC, created_at DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query payment page for credit %s: %w", creditID, err)
	}
	defer rows.Close()

	ms, err := scanPaymentRows(rows)
	if err != nil {
		return nil, nil, err
	}

	var newNextToken *string
	if len(ms) > limit {
		last := ms[limit-1]
		token := pagination.EncodeToken(last.PaymentDate, last.CreatedAt)
		newNextToken = &token
		ms = ms[:limit]
	}

	return mapping.ToDomainPaymentRecordSlice(ms), newNextToken, nil
}
