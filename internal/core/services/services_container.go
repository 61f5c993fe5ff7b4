package services

import (
	"github.com/InstiTrack/institute_ledger/internal/core/events"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher portssvc.EventPublisher) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Accounts = NewAccountService(repos.AccountRepo, repos.JournalRepo)
	container.Posting = NewPostingService(repos.JournalRepo, repos.AccountRepo, publisher)
	container.Reporting = NewReportingService(
		repos.ReportingRepo,
		repos.AccountRepo,
		WithDeferredRevenueAccount(cfg.DeferredRevenueAccountCode),
	)
	container.Publisher = publisher

	// Event routing: register the ledger handlers for every event type
	// they react to. Registration order is dispatch order.
	router := events.NewRouter(repos.EventLogRepo)
	handlers := events.NewLedgerHandlers(
		container.Posting,
		repos.JournalRepo,
		repos.InvoiceRepo,
		publisher,
		events.AccountCodes{
			Receivable:      cfg.ReceivableAccountCode,
			Cash:            cfg.CashAccountCode,
			DeferredRevenue: cfg.DeferredRevenueAccountCode,
			TuitionRevenue:  cfg.TuitionRevenueAccountCode,
		},
	)
	handlers.RegisterAll(router)
	container.Dispatcher = router

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.ChartOfAccountsSvc = (*AccountService)(nil)
	_ portssvc.PostingSvc         = (*PostingService)(nil)
)
