package services

import (
	"context"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
)

// Notifier delivers overdue-credit reminders to shop owners. Implementations
// may send email or just log, depending on configuration.
type Notifier interface {
	// NotifyOverdue sends one reminder covering the given overdue credits,
	// all belonging to the same owner.
	NotifyOverdue(ctx context.Context, ownerEmail string, overdue []domain.OverdueCredit) error
}
