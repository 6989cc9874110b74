package repositories

// RepositoryProvider bundles the concrete repositories behind their port
// interfaces. Both the pgsql and the sqlite store produce one of these, so
// the service layer never knows which backend is active.
type RepositoryProvider struct {
	Customer  CustomerRepositoryFacade
	Credit    CreditRepositoryFacade
	User      UserRepository
	Reporting ReportingRepository
}
