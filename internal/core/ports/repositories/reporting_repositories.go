package repositories

import (
	"context"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
)

// ReportingRepository defines operations for retrieving ledger report data
type ReportingRepository interface {
	// GetOutstandingByCustomer retrieves, per customer of the given owner, the
	// number of open credits and the total outstanding balance.
	GetOutstandingByCustomer(ctx context.Context, ownerUserID string) ([]domain.CustomerOutstanding, error)

	// GetStatusTotals retrieves credit counts and amount totals grouped by status.
	GetStatusTotals(ctx context.Context, ownerUserID string) ([]domain.StatusTotal, error)

	// ListOverdueCredits retrieves outstanding credits created before the
	// cutoff, joined with customer and owner contact details.
	ListOverdueCredits(ctx context.Context, cutoff time.Time) ([]domain.OverdueCredit, error)
}
