package pgsql

import (
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool, sequenceScope SequenceScope) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool, sequenceScope)
	invoiceRepo := newPgxInvoiceRepository(dbPool)
	eventLogRepo := newPgxEventLogRepository(dbPool)
	reportingRepo := newReportingRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:   accountRepo,
		JournalRepo:   journalRepo,
		InvoiceRepo:   invoiceRepo,
		EventLogRepo:  eventLogRepo,
		ReportingRepo: reportingRepo,
	}
}
