package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
)

type reportingRepository struct {
	db *sql.DB
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// Amount columns are TEXT; aggregates CAST to REAL and the results are read
// back through float64. Report money is display-only, so the float round trip
// is acceptable here where it would not be on the ledger itself.

func (r *reportingRepository) GetOutstandingByCustomer(ctx context.Context, ownerUserID string) ([]domain.CustomerOutstanding, error) {
	query := `
		SELECT cu.customer_id, cu.name, cu.phone,
		       COALESCE(SUM(CASE WHEN CAST(cr.remaining_amount AS REAL) > 0 THEN 1 ELSE 0 END), 0) AS open_credits,
		       COALESCE(SUM(CAST(cr.remaining_amount AS REAL)), 0) AS total_outstanding,
		       MIN(CASE WHEN CAST(cr.remaining_amount AS REAL) > 0 THEN cr.credit_date END) AS oldest_credit_date
		FROM customers cu
		LEFT JOIN credits cr ON cr.customer_id = cu.customer_id
		WHERE cu.owner_user_id = ?
		GROUP BY cu.customer_id, cu.name, cu.phone
		ORDER BY total_outstanding DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding by customer: %w", err)
	}
	defer rows.Close()

	var result []domain.CustomerOutstanding
	for rows.Next() {
		var row domain.CustomerOutstanding
		var totalOutstanding float64
		var oldest sql.NullTime
		if err := rows.Scan(
			&row.CustomerID, &row.Name, &row.Phone,
			&row.OpenCredits, &totalOutstanding, &oldest,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outstanding row: %w", err)
		}
		row.TotalOutstanding = decimal.NewFromFloat(totalOutstanding)
		if oldest.Valid {
			t := oldest.Time
			row.OldestCreditDate = &t
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outstanding rows: %w", err)
	}
	return result, nil
}

func (r *reportingRepository) GetStatusTotals(ctx context.Context, ownerUserID string) ([]domain.StatusTotal, error) {
	query := `
		SELECT cr.status, COUNT(*),
		       COALESCE(SUM(CAST(cr.total_amount AS REAL)), 0),
		       COALESCE(SUM(CAST(cr.paid_amount AS REAL)), 0)
		FROM credits cr
		JOIN customers cu ON cu.customer_id = cr.customer_id
		WHERE cu.owner_user_id = ?
		GROUP BY cr.status
		ORDER BY cr.status
	`
	rows, err := r.db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status totals: %w", err)
	}
	defer rows.Close()

	var result []domain.StatusTotal
	for rows.Next() {
		var row domain.StatusTotal
		var totalAmount, paidAmount float64
		if err := rows.Scan(&row.Status, &row.Count, &totalAmount, &paidAmount); err != nil {
			return nil, fmt.Errorf("failed to scan status total row: %w", err)
		}
		row.TotalAmount = decimal.NewFromFloat(totalAmount)
		row.PaidAmount = decimal.NewFromFloat(paidAmount)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status total rows: %w", err)
	}
	return result, nil
}

func (r *reportingRepository) ListOverdueCredits(ctx context.Context, cutoff time.Time) ([]domain.OverdueCredit, error) {
	query := `
		SELECT cr.credit_id, cr.customer_id, cr.item, cr.remarks, cr.credit_date,
		       cr.total_amount, cr.paid_amount, cr.remaining_amount, cr.status,
		       cu.name, cu.phone, cu.owner_user_id, u.email
		FROM credits cr
		JOIN customers cu ON cu.customer_id = cr.customer_id
		JOIN users u ON u.user_id = cu.owner_user_id
		WHERE CAST(cr.remaining_amount AS REAL) > 0 AND cr.credit_date < ?
		ORDER BY cr.credit_date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue credits: %w", err)
	}
	defer rows.Close()

	var result []domain.OverdueCredit
	for rows.Next() {
		var row domain.OverdueCredit
		var email sql.NullString
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
		if email.Valid {
			row.OwnerEmail = email.String
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue credit rows: %w", err)
	}
	return result, nil
}
