package services

import (
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Customer = NewCustomerService(repos.Customer)
	container.Credit = NewCreditService(repos.Credit, repos.Customer)
	container.User = NewUserService(repos.User)
	container.Reporting = NewReportingService(repos.Reporting)
	container.Token = NewTokenService(cfg, container.User)

	return container
}

// Interface implementation checks.
var (
	_ portssvc.CustomerSvcFacade  = (*customerService)(nil)
	_ portssvc.CreditSvcFacade    = (*creditService)(nil)
	_ portssvc.UserSvcFacade      = (*userService)(nil)
	_ portssvc.ReportingSvcFacade = (*reportingService)(nil)
	_ portssvc.TokenSvcFacade     = (*tokenService)(nil)
)
