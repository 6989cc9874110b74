package services

import (
	"context"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
)

// ReportingSvcFacade defines read-only aggregate reports over the ledger.
type ReportingSvcFacade interface {
	// GetOutstandingByCustomer returns, per customer of the requesting user,
	// the open credit count and total outstanding balance.
	GetOutstandingByCustomer(ctx context.Context, requestingUserID string) ([]domain.CustomerOutstanding, error)

	// GetStatusTotals returns credit counts and amount totals grouped by status.
	GetStatusTotals(ctx context.Context, requestingUserID string) ([]domain.StatusTotal, error)

	// ListOverdueCredits returns outstanding credits older than the given age,
	// with the contact details needed for follow-up.
	ListOverdueCredits(ctx context.Context, olderThan time.Duration) ([]domain.OverdueCredit, error)
}
