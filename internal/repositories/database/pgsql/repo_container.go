package pgsql

import (
	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the pgx repositories behind the port interfaces.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Customer:  newPgxCustomerRepository(dbPool),
		Credit:    newPgxCreditRepository(dbPool),
		User:      newPgxUserRepository(dbPool),
		Reporting: newPgxReportingRepository(dbPool),
	}
}
