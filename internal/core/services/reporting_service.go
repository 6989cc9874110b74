package services

import (
	"context"
	"fmt"
	"time"

	"github.com/DubeTracker/dube_ledger_app/internal/core/domain"
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
)

// reportingService implements ReportingSvcFacade over the reporting repository.
// The aggregates are computed by the database from the stored derived columns.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

func (s *reportingService) GetOutstandingByCustomer(ctx context.Context, requestingUserID string) ([]domain.CustomerOutstanding, error) {
	rows, err := s.reportingRepo.GetOutstandingByCustomer(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to build outstanding report: %w", err)
	}
	return rows, nil
}

func (s *reportingService) GetStatusTotals(ctx context.Context, requestingUserID string) ([]domain.StatusTotal, error) {
	rows, err := s.reportingRepo.GetStatusTotals(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to build status totals report: %w", err)
	}
	return rows, nil
}

func (s *reportingService) ListOverdueCredits(ctx context.Context, olderThan time.Duration) ([]domain.OverdueCredit, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := s.reportingRepo.ListOverdueCredits(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue credits: %w", err)
	}
	return rows, nil
}
