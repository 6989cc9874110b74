package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/DubeTracker/dube_ledger_app/internal/apperrors"
	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	"github.com/DubeTracker/dube_ledger_app/internal/models"
	"github.com/DubeTracker/dube_ledger_app/internal/utils/mapping"
	"github.com/DubeTracker/dube_ledger_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCreditRepository struct {
	BaseRepository
}

func newPgxCreditRepository(pool *pgxpool.Pool) portsrepo.CreditRepositoryFacade {
	return &PgxCreditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CreditRepositoryFacade = (*PgxCreditRepository)(nil)

const creditColumns = `credit_id, customer_id, item, remarks, credit_date, images, total_amount, paid_amount, remaining_amount, status, created_at, created_by, last_updated_at, last_updated_by`

func scanCredit(row pgx.Row) (models.Credit, error) {
	var m models.Credit
	err := row.Scan(
		&m.CreditID,
		&m.CustomerID,
		&m.Item,
		&m.Remarks,
		&m.CreditDate,
		&m.Images,
		&m.TotalAmount,
		&m.PaidAmount,
		&m.RemainingAmount,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxCreditRepository) queryCredits(ctx context.Context, query string, args ...any) ([]domain.Credit, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
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

// insertPaymentRecord writes one payment history row inside the given transaction.
func insertPaymentRecord(ctx context.Context, tx pgx.Tx, record models.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (payment_id, credit_id, amount, payment_date, remaining_after_payment, note, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, query,
		record.PaymentID,
		record.CreditID,
		record.Amount,
		record.PaymentDate,
		record.RemainingAfterPayment,
		record.Note,
		record.CreatedAt,
		record.CreatedBy,
		record.LastUpdatedAt,
		record.LastUpdatedBy,
	)
	return err
}

func (r *PgxCreditRepository) SaveCredit(ctx context.Context, credit domain.Credit, initialPayment *domain.PaymentRecord) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelCredit(credit)
	query := `
		INSERT INTO credits (` + creditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = tx.Exec(ctx, query,
		m.CreditID,
		m.CustomerID,
		m.Item,
		m.Remarks,
		m.CreditDate,
		m.Images,
		m.TotalAmount,
		m.PaidAmount,
		m.RemainingAmount,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert credit "+m.CreditID, err)
	}

	if initialPayment != nil {
		if err := insertPaymentRecord(ctx, tx, mapping.ToModelPaymentRecord(*initialPayment)); err != nil {
			return apperrors.NewAppError(500, "failed to insert initial payment for credit "+m.CreditID, err)
		}
	}

	return r.Commit(ctx, tx)
}

func (r *PgxCreditRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE credit_id = $1;`
	m, err := scanCredit(r.Pool.QueryRow(ctx, query, creditID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find credit by ID %s: %w", creditID, err)
	}
	d := mapping.ToDomainCredit(m)
	return &d, nil
}

func (r *PgxCreditRepository) ListCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE customer_id = $1
		ORDER BY credit_date ASC, created_at ASC;
	`
	return r.queryCredits(ctx, query, customerID)
}

func (r *PgxCreditRepository) ListEligibleCreditsByCustomer(ctx context.Context, customerID string) ([]domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE customer_id = $1 AND remaining_amount > 0
		ORDER BY credit_date ASC, created_at ASC;
	`
	return r.queryCredits(ctx, query, customerID)
}

func (r *PgxCreditRepository) UpdateCredit(ctx context.Context, credit domain.Credit) error {
	m := mapping.ToModelCredit(credit)
	query := `
		UPDATE credits
		SET item = $2, remarks = $3, images = $4, total_amount = $5, paid_amount = $6,
		    remaining_amount = $7, status = $8, last_updated_at = $9, last_updated_by = $10
		WHERE credit_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.CreditID,
		m.Item,
		m.Remarks,
		m.Images,
		m.TotalAmount,
		m.PaidAmount,
		m.RemainingAmount,
		m.Status,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update credit %s: %w", credit.CreditID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxCreditRepository) DeleteCredit(ctx context.Context, creditID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM payment_records WHERE credit_id = $1;`, creditID); err != nil {
		return apperrors.NewAppError(500, "failed to delete payment records for credit "+creditID, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM credits WHERE credit_id = $1;`, creditID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete credit "+creditID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}

// ApplyToCredits locks the given credit rows, hands the freshly read credits
// to apply and persists what it returns, all in one transaction. Balances are
// therefore always computed from the locked rows; a second writer blocks on
// the row locks and then sees the committed balances, never a stale read.
func (r *PgxCreditRepository) ApplyToCredits(ctx context.Context, creditIDs []string, apply portsrepo.PaymentApplier) error {
	if len(creditIDs) == 0 {
		return nil
	}
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE credit_id = ANY($1)
		ORDER BY credit_id
		FOR UPDATE;
	`
	return r.applyLocked(ctx, query, []any{creditIDs}, len(creditIDs), apply)
}

// ApplyToEligibleCredits is ApplyToCredits over the customer's open credits,
// read oldest first. Two lump sums landing on the same customer at once lock
// the same rows in the same order, so they serialize instead of deadlocking.
func (r *PgxCreditRepository) ApplyToEligibleCredits(ctx context.Context, customerID string, apply portsrepo.PaymentApplier) error {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE customer_id = $1 AND remaining_amount > 0
		ORDER BY credit_date ASC, created_at ASC
		FOR UPDATE;
	`
	return r.applyLocked(ctx, query, []any{customerID}, -1, apply)
}

func (r *PgxCreditRepository) applyLocked(ctx context.Context, lockQuery string, lockArgs []any, expected int, apply portsrepo.PaymentApplier) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	rows, err := tx.Query(ctx, lockQuery, lockArgs...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to lock credits for update", err)
	}
	var ms []models.Credit
	for rows.Next() {
		m, err := scanCredit(rows)
		if err != nil {
			rows.Close()
			return apperrors.NewAppError(500, "failed to scan locked credit row", err)
		}
		ms = append(ms, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperrors.NewAppError(500, "failed to lock credits for update", err)
	}
	if expected >= 0 && len(ms) != expected {
		return apperrors.NewAppError(404, "one or more credits no longer exist", apperrors.ErrNotFound)
	}

	credits, payments, err := apply(mapping.ToDomainCreditSlice(ms))
	if err != nil {
		return err
	}
	if len(credits) == 0 {
		return r.Commit(ctx, tx)
	}

	batch := &pgx.Batch{}
	updateQuery := `
		UPDATE credits
		SET paid_amount = $2, remaining_amount = $3, status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE credit_id = $1;
	`
	for _, c := range credits {
		m := mapping.ToModelCredit(c)
		batch.Queue(updateQuery, m.CreditID, m.PaidAmount, m.RemainingAmount, m.Status, m.LastUpdatedAt, m.LastUpdatedBy)
	}
	paymentQuery := `
		INSERT INTO payment_records (payment_id, credit_id, amount, payment_date, remaining_after_payment, note, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, p := range payments {
		m := mapping.ToModelPaymentRecord(p)
		batch.Queue(paymentQuery, m.PaymentID, m.CreditID, m.Amount, m.PaymentDate, m.RemainingAfterPayment, m.Note, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return apperrors.NewAppError(500, "failed to apply payment batch", err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to close payment batch", err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxCreditRepository) FindPaymentsByCreditID(ctx context.Context, creditID string) ([]domain.PaymentRecord, error) {
	query := `
		SELECT payment_id, credit_id, amount, payment_date, remaining_after_payment, note, created_at, created_by, last_updated_at, last_updated_by
		FROM payment_records
		WHERE credit_id = $1
		ORDER BY payment_date ASC, created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, creditID)
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

func scanPaymentRows(rows pgx.Rows) ([]models.PaymentRecord, error) {
	var ms []models.PaymentRecord
	for rows.Next() {
		var m models.PaymentRecord
		if err := rows.Scan(
			&m.PaymentID,
			&m.CreditID,
			&m.Amount,
			&m.PaymentDate,
			&m.RemainingAfterPayment,
			&m.Note,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
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

// ListPaymentsByCreditID pages through a credit's payment history newest first
// using keyset pagination on (payment_date, created_at).
func (r *PgxCreditRepository) ListPaymentsByCreditID(ctx context.Context, creditID string, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error) {
	query := `
		SELECT payment_id, credit_id, amount, payment_date, remaining_after_payment, note, created_at, created_by, last_updated_at, last_updated_by
		FROM payment_records
		WHERE credit_id = $1
	`
	args := []any{creditID}

	if nextToken != nil && *nextToken != "" {
		paymentDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid pagination token", err)
		}
		query += ` AND (payment_date, created_at) < ($2, $3)`
		args = append(args, paymentDate, createdAt)
	}

	query += fmt.Sprintf(` ORDER BY payment_date DESC, created_at DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
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
