package repositories

// RepositoryProvider bundles the concrete repositories wired at startup.
type RepositoryProvider struct {
	AccountRepo   AccountRepository
	JournalRepo   JournalRepositoryFacade
	InvoiceRepo   InvoiceRepository
	EventLogRepo  EventLogRepository
	ReportingRepo ReportingRepository
}
