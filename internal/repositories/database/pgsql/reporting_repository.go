package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxReportingRepository computes ledger aggregates in SQL from the stored
// derived columns.
type PgxReportingRepository struct {
	BaseRepository
}

func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

func (r *PgxReportingRepository) GetOutstandingByCustomer(ctx context.Context, ownerUserID string) ([]domain.CustomerOutstanding, error) {
	query := `
		SELECT cu.customer_id, cu.name, cu.phone,
		       COUNT(cr.credit_id) FILTER (WHERE cr.remaining_amount > 0) AS open_credits,
		       COALESCE(SUM(cr.remaining_amount), 0) AS total_outstanding,
		       MIN(cr.credit_date) FILTER (WHERE cr.remaining_amount > 0) AS oldest_credit_date
		FROM customers cu
		LEFT JOIN credits cr ON cr.customer_id = cu.customer_id
		WHERE cu.owner_user_id = $1
		GROUP BY cu.customer_id, cu.name, cu.phone
		ORDER BY total_outstanding DESC;
	`
	rows, err := r.Pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding by customer: %w", err)
	}
	defer rows.Close()

	var result []domain.CustomerOutstanding
	for rows.Next() {
		var row domain.CustomerOutstanding
		if err := rows.Scan(
			&row.CustomerID,
			&row.Name,
			&row.Phone,
			&row.OpenCredits,
			&row.TotalOutstanding,
			&row.OldestCreditDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outstanding row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outstanding rows: %w", err)
	}
	return result, nil
}

func (r *PgxReportingRepository) GetStatusTotals(ctx context.Context, ownerUserID string) ([]domain.StatusTotal, error) {
	query := `
		SELECT cr.status, COUNT(*), COALESCE(SUM(cr.total_amount), 0), COALESCE(SUM(cr.paid_amount), 0)
		FROM credits cr
		JOIN customers cu ON cu.customer_id = cr.customer_id
		WHERE cu.owner_user_id = $1
		GROUP BY cr.status
		ORDER BY cr.status;
	`
	rows, err := r.Pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status totals: %w", err)
	}
	defer rows.Close()

	var result []domain.StatusTotal
	for rows.Next() {
		var row domain.StatusTotal
		if err := rows.Scan(&row.Status, &row.Count, &row.TotalAmount, &row.PaidAmount); err != nil {
			return nil, fmt.Errorf("failed to scan status total row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status total rows: %w", err)
	}
	return result, nil
}

func (r *PgxReportingRepository) ListOverdueCredits(ctx context.Context, cutoff time.Time) ([]domain.OverdueCredit, error) {
	query := `
		SELECT cr.credit_id, cr.customer_id, cr.item, cr.remarks, cr.credit_date,
		       cr.total_amount, cr.paid_amount, cr.remaining_amount, cr.status,
		       cu.name, cu.phone, cu.owner_user_id, u.email
		FROM credits cr
		JOIN customers cu ON cu.customer_id = cr.customer_id
		JOIN users u ON u.user_id = cu.owner_user_id
		WHERE cr.remaining_amount > 0 AND cr.credit_date < $1
		ORDER BY cr.credit_date ASC;
	`
	rows, err := r.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue credits: %w", err)
	}
	defer rows.Close()

	var result []domain.OverdueCredit
	for rows.Next() {
		var row domain.OverdueCredit
		var email *string
		if err := rows.Scan(
			&row.Credit.CreditID,
			&row.Credit.CustomerID,
			&row.Credit.Item,
			&row.Credit.Remarks,
			&row.Credit.CreditDate,
			&row.Credit.TotalAmount,
			&row.Credit.PaidAmount,
			&row.Credit.RemainingAmount,
			&row.Credit.Status,
			&row.CustomerName,
			&row.CustomerPhone,
			&row.OwnerUserID,
			&email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan overdue credit row: %w", err)
		}
		if email != nil {
			row.OwnerEmail = *email
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue credit rows: %w", err)
	}
	return result, nil
}
