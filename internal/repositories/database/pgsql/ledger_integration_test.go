package pgsql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/InstiTrack/institute_ledger/internal/core/services"
	"github.com/InstiTrack/institute_ledger/internal/repositories/database/pgsql"
	"github.com/InstiTrack/institute_ledger/internal/utils/accounting"
	"github.com/InstiTrack/institute_ledger/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// LedgerIntegrationTestSuite runs against a real Postgres database and
// exercises the SQL that the unit suites only mock: the voided-journal
// exclusion in reports, the trial balance identity, the as-of balance
// query and the in-transaction balance re-check at post time. Set
// TEST_PGSQL_URL to enable it.
type LedgerIntegrationTestSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	repos portsrepo.RepositoryProvider

	branch string
	actor  domain.Actor

	cash       domain.Account
	receivable domain.Account
	deferred   domain.Account
	revenue    domain.Account

	periodStart time.Time
	periodEnd   time.Time

	voidedJournalID string
	mirrorJournalID string
}

func (suite *LedgerIntegrationTestSuite) SetupSuite() {
	databaseURL := os.Getenv("TEST_PGSQL_URL")
	if databaseURL == "" {
		suite.T().Skip("TEST_PGSQL_URL not set")
	}

	ctx := context.Background()

	migrationDB, err := sql.Open("pgx", databaseURL)
	suite.Require().NoError(err)
	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	suite.Require().NoError(err)
	m, err := migrate.NewWithDatabaseInstance("file://../../../../migrations", "postgres", driver)
	suite.Require().NoError(err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		suite.Require().NoError(err)
	}
	_, _ = m.Close()

	suite.pool, err = database.NewPgxPool(ctx, databaseURL, true)
	suite.Require().NoError(err)
	suite.repos = pgsql.NewRepositoryProvider(suite.pool, pgsql.SequenceBranch)

	// Unique branch and account codes keep runs isolated without
	// truncating shared tables.
	suffix := uuid.NewString()[:8]
	suite.branch = "TB-" + suffix
	suite.actor = domain.Actor{UserID: "integration-test", BranchID: suite.branch}
	suite.periodStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	suite.periodEnd = time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

	suite.cash = suite.createAccount(ctx, suffix+"-1000", "Cash", domain.Asset, domain.DebitSide)
	suite.receivable = suite.createAccount(ctx, suffix+"-1200", "Accounts Receivable", domain.Asset, domain.DebitSide)
	suite.deferred = suite.createAccount(ctx, suffix+"-2300", "Deferred Revenue", domain.Liability, domain.CreditSide)
	suite.revenue = suite.createAccount(ctx, suffix+"-4000", "Tuition Revenue", domain.Revenue, domain.CreditSide)

	// The 1000-fee lifecycle: enrollment, payment, completion.
	day := 24 * time.Hour
	suite.postJournal(ctx, suite.receivable, suite.deferred, 1000, suite.periodStart.Add(1*day), "Deferred revenue on enrollment")
	suite.postJournal(ctx, suite.cash, suite.receivable, 1000, suite.periodStart.Add(2*day), "Cash receipt for payment")
	suite.postJournal(ctx, suite.deferred, suite.revenue, 1000, suite.periodStart.Add(3*day), "Revenue recognition on completion")

	// A posted journal that gets voided: both it and its reversing
	// mirror must disappear from every report.
	suite.voidedJournalID = suite.postJournal(ctx, suite.cash, suite.revenue, 250, suite.periodStart.Add(4*day), "Posted in error")
	suite.mirrorJournalID = suite.voidJournal(ctx, suite.voidedJournalID)
}

func (suite *LedgerIntegrationTestSuite) TearDownSuite() {
	if suite.pool == nil {
		return
	}
	ctx := context.Background()
	_, _ = suite.pool.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id IN (SELECT journal_id FROM journals WHERE branch_id = $1);`, suite.branch)
	_, _ = suite.pool.Exec(ctx, `DELETE FROM journals WHERE branch_id = $1;`, suite.branch)
	_, _ = suite.pool.Exec(ctx, `DELETE FROM accounts WHERE branch_id = $1;`, suite.branch)
	_, _ = suite.pool.Exec(ctx, `DELETE FROM journal_sequences WHERE scope = $1;`, suite.branch)
	suite.pool.Close()
}

func (suite *LedgerIntegrationTestSuite) createAccount(ctx context.Context, code, name string, accountType domain.AccountType, normal domain.BalanceSide) domain.Account {
	now := time.Now()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		Code:          code,
		Name:          name,
		AccountType:   accountType,
		NormalBalance: normal,
		BranchID:      suite.branch,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     suite.actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: suite.actor.UserID,
		},
	}
	suite.Require().NoError(suite.repos.AccountRepo.SaveAccount(ctx, account))
	return account
}

func (suite *LedgerIntegrationTestSuite) buildJournal(status domain.JournalStatus, date time.Time, description string) domain.Journal {
	now := time.Now()
	return domain.Journal{
		JournalID:   uuid.NewString(),
		BranchID:    suite.branch,
		JournalDate: date,
		Description: description,
		Status:      status,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     suite.actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: suite.actor.UserID,
		},
	}
}

func (suite *LedgerIntegrationTestSuite) buildLines(journal domain.Journal, debitAccount, creditAccount domain.Account, amount int64) []domain.JournalLine {
	value := decimal.NewFromInt(amount)
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journal.JournalID, AccountID: debitAccount.AccountID, Debit: value, Credit: decimal.Zero},
		{LineID: uuid.NewString(), JournalID: journal.JournalID, AccountID: creditAccount.AccountID, Debit: decimal.Zero, Credit: value},
	}
	for i := range lines {
		lines[i].AuditFields = journal.AuditFields
	}
	return lines
}

func (suite *LedgerIntegrationTestSuite) postJournal(ctx context.Context, debitAccount, creditAccount domain.Account, amount int64, date time.Time, description string) string {
	journal := suite.buildJournal(domain.Posted, date, description)
	lines := suite.buildLines(journal, debitAccount, creditAccount, amount)
	suite.Require().NoError(suite.repos.JournalRepo.SaveJournal(ctx, journal, lines))
	return journal.JournalID
}

func (suite *LedgerIntegrationTestSuite) voidJournal(ctx context.Context, journalID string) string {
	lines, err := suite.repos.JournalRepo.FindLinesByJournalID(ctx, journalID)
	suite.Require().NoError(err)

	original, err := suite.repos.JournalRepo.FindJournalByID(ctx, journalID)
	suite.Require().NoError(err)

	mirror := suite.buildJournal(domain.Posted, original.JournalDate, "Reversal of "+original.Reference)
	mirror.OriginalJournalID = &original.JournalID
	reversed := accounting.ReversedLines(lines)
	for i := range reversed {
		reversed[i].LineID = uuid.NewString()
		reversed[i].JournalID = mirror.JournalID
	}
	suite.Require().NoError(suite.repos.JournalRepo.SaveReversal(ctx, mirror, reversed, journalID, "posted in error", suite.actor.UserID, time.Now()))
	return mirror.JournalID
}

func (suite *LedgerIntegrationTestSuite) TestTrialBalance_ExcludesVoidAndBalances() {
	ctx := context.Background()
	reporting := services.NewReportingService(suite.repos.ReportingRepo, suite.repos.AccountRepo)

	resp, err := reporting.GetTrialBalance(ctx, suite.periodStart, suite.periodEnd, suite.branch)
	suite.Require().NoError(err)
	suite.Require().Len(resp.Rows, 4)

	byCode := map[string]domain.TrialBalanceRow{}
	for _, row := range resp.Rows {
		byCode[row.AccountCode] = row
	}

	// The voided 250 journal and its mirror are invisible: cash closes
	// at the 1000 payment alone and revenue at the 1000 recognition.
	suite.True(byCode[suite.cash.Code].Closing.Equal(decimal.NewFromInt(1000)), "cash closing is %s", byCode[suite.cash.Code].Closing)
	suite.True(byCode[suite.receivable.Code].Closing.IsZero(), "receivable closing is %s", byCode[suite.receivable.Code].Closing)
	suite.True(byCode[suite.deferred.Code].Closing.IsZero(), "deferred closing is %s", byCode[suite.deferred.Code].Closing)
	suite.True(byCode[suite.revenue.Code].Closing.Equal(decimal.NewFromInt(1000)), "revenue closing is %s", byCode[suite.revenue.Code].Closing)

	// Period totals agree because every surviving journal balances.
	suite.True(resp.TotalDebit.Equal(resp.TotalCredit), "total debit %s vs total credit %s", resp.TotalDebit, resp.TotalCredit)

	// The global identity: debit-normal closings equal credit-normal
	// closings across the whole branch.
	debitSide := decimal.Zero
	creditSide := decimal.Zero
	for _, row := range resp.Rows {
		if row.NormalBalance == domain.DebitSide {
			debitSide = debitSide.Add(row.Closing)
		} else {
			creditSide = creditSide.Add(row.Closing)
		}
	}
	suite.True(debitSide.Equal(creditSide), "debit-normal closings %s vs credit-normal closings %s", debitSide, creditSide)
}

func (suite *LedgerIntegrationTestSuite) TestGeneralLedger_ExcludesVoidedJournals() {
	ctx := context.Background()
	reporting := services.NewReportingService(suite.repos.ReportingRepo, suite.repos.AccountRepo)

	resp, err := reporting.GetGeneralLedger(ctx, suite.cash.Code, suite.periodStart, suite.periodEnd)
	suite.Require().NoError(err)

	suite.Require().Len(resp.Report.Lines, 1, "only the payment line survives on cash")
	for _, line := range resp.Report.Lines {
		suite.NotEqual(suite.voidedJournalID, line.JournalID)
		suite.NotEqual(suite.mirrorJournalID, line.JournalID)
	}
	suite.True(resp.Report.Closing.Equal(decimal.NewFromInt(1000)), "cash closing is %s", resp.Report.Closing)
}

func (suite *LedgerIntegrationTestSuite) TestAccountBalanceAsOf_MatchesLedger() {
	ctx := context.Background()
	accounts := services.NewAccountService(suite.repos.AccountRepo, suite.repos.JournalRepo)

	resp, err := accounts.GetAccountBalance(ctx, suite.cash.AccountID, suite.periodEnd)
	suite.Require().NoError(err)
	suite.True(resp.Balance.Equal(decimal.NewFromInt(1000)), "cash balance is %s", resp.Balance)
}

func (suite *LedgerIntegrationTestSuite) TestMarkPosted_RechecksBalanceUnderLock() {
	ctx := context.Background()

	draft := suite.buildJournal(domain.Draft, suite.periodStart.Add(10*24*time.Hour), "Draft edited after the balance read")
	lines := suite.buildLines(draft, suite.cash, suite.revenue, 100)
	suite.Require().NoError(suite.repos.JournalRepo.SaveJournal(ctx, draft, lines))

	// A draft edit lands between a caller's balance read and the
	// posting transaction.
	tag, err := suite.pool.Exec(ctx, `UPDATE journal_lines SET credit = 90 WHERE line_id = $1;`, lines[1].LineID)
	suite.Require().NoError(err)
	suite.Require().EqualValues(1, tag.RowsAffected())

	posted, err := suite.repos.JournalRepo.MarkPosted(ctx, draft.JournalID, suite.actor.UserID, time.Now())
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrImbalancedJournal)
	suite.Nil(posted)

	var status string
	suite.Require().NoError(suite.pool.QueryRow(ctx, `SELECT status FROM journals WHERE journal_id = $1;`, draft.JournalID).Scan(&status))
	suite.Equal(string(domain.Draft), status, fmt.Sprintf("journal %s must stay a draft", draft.JournalID))
}

func TestLedgerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerIntegrationTestSuite))
}
