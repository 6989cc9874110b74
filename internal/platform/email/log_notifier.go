package email

import (
	"context"
	"log/slog"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
)

// LogNotifier logs reminders instead of sending them. Used when SMTP is not
// configured, so the reminder loop still runs in development.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ portssvc.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) NotifyOverdue(ctx context.Context, ownerEmail string, overdue []domain.OverdueCredit) error {
	for _, o := range overdue {
		n.Logger.Info("overdue credit reminder",
			slog.String("owner_email", ownerEmail),
			slog.String("customer", o.CustomerName),
			slog.String("credit_id", o.Credit.CreditID),
			slog.String("remaining", o.Credit.RemainingAmount.String()),
		)
	}
	return nil
}
