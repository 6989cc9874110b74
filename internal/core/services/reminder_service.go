package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
)

// ReminderService periodically scans for overdue credits and notifies the
// owning shop keepers. It runs as a background goroutine owned by main.
type ReminderService struct {
	reporting  portssvc.ReportingSvcFacade
	notifier   portssvc.Notifier
	interval   time.Duration
	overdueAge time.Duration
	logger     *slog.Logger
}

// NewReminderService creates a new reminder service.
func NewReminderService(reporting portssvc.ReportingSvcFacade, notifier portssvc.Notifier, interval, overdueAge time.Duration, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		reporting:  reporting,
		notifier:   notifier,
		interval:   interval,
		overdueAge: overdueAge,
		logger:     logger,
	}
}

// Start runs the reminder loop until ctx is cancelled. One sweep runs
// immediately so a restart never silently skips a cycle.
func (s *ReminderService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("reminder service stopped")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// sweep finds overdue credits, groups them per owner and sends one reminder
// per owner. Failures are logged and skipped; the next tick retries.
func (s *ReminderService) sweep(ctx context.Context) {
	overdue, err := s.reporting.ListOverdueCredits(ctx, s.overdueAge)
	if err != nil {
		s.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
		return
	}
	if len(overdue) == 0 {
		return
	}

	byOwner := make(map[string][]domain.OverdueCredit)
	for _, o := range overdue {
		byOwner[o.OwnerUserID] = append(byOwner[o.OwnerUserID], o)
	}

	for ownerID, credits := range byOwner {
		email := credits[0].OwnerEmail
		if email == "" {
			// Owner never set an email address; nothing to deliver to.
			continue
		}
		if err := s.notifier.NotifyOverdue(ctx, email, credits); err != nil {
			s.logger.Error("failed to send overdue reminder",
				slog.String("owner_user_id", ownerID),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.logger.Info("overdue reminder sent",
			slog.String("owner_user_id", ownerID),
			slog.Int("overdue_credits", len(credits)),
		)
	}
}
