package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/InstiTrack/institute_ledger/internal/core/events"
	portsrepo "github.com/InstiTrack/institute_ledger/internal/core/ports/repositories"
	"github.com/InstiTrack/institute_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock PostingSvc ---
type MockPostingService struct {
	mock.Mock
}

func (m *MockPostingService) CreateDraft(ctx context.Context, req dto.CreateJournalRequest, actor domain.Actor) (*domain.Journal, error) {
	args := m.Called(ctx, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockPostingService) Post(ctx context.Context, journalID string, actor domain.Actor) (*domain.Journal, error) {
	args := m.Called(ctx, journalID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockPostingService) Void(ctx context.Context, journalID string, reason string, actor domain.Actor) (*domain.Journal, error) {
	args := m.Called(ctx, journalID, reason, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockPostingService) PostDirect(ctx context.Context, req dto.CreateJournalRequest, idempotencyKey *string, actor domain.Actor) (*domain.Journal, error) {
	args := m.Called(ctx, req, idempotencyKey, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockPostingService) GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockPostingService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalsResponse), args.Error(1)
}

// --- Mock JournalReader ---
type MockJournalReader struct {
	mock.Mock
}

func (m *MockJournalReader) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalReader) FindJournalByIdempotencyKey(ctx context.Context, key string) (*domain.Journal, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalReader) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalReader) ListJournals(ctx context.Context, filter portsrepo.ListJournalsFilter) ([]domain.Journal, *string, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Journal), nil, args.Error(2)
}

func (m *MockJournalReader) AccountBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock InvoiceRepository ---
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindInvoiceByEnrollmentID(ctx context.Context, enrollmentID string) (*domain.Invoice, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) LinkJournal(ctx context.Context, invoiceID string, journalID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, invoiceID, journalID, updatedBy, updatedAt)
	return args.Error(0)
}

// --- Test Suite Setup ---
type LedgerHandlersTestSuite struct {
	suite.Suite
	mockPosting     *MockPostingService
	mockJournalRepo *MockJournalReader
	mockInvoiceRepo *MockInvoiceRepository
	handlers        *events.LedgerHandlers
	enrollment      domain.Enrollment
}

var testAccountCodes = events.AccountCodes{
	Receivable:      "1200",
	Cash:            "1000",
	DeferredRevenue: "2300",
	TuitionRevenue:  "4000",
}

func (suite *LedgerHandlersTestSuite) SetupTest() {
	suite.mockPosting = new(MockPostingService)
	suite.mockJournalRepo = new(MockJournalReader)
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.handlers = events.NewLedgerHandlers(suite.mockPosting, suite.mockJournalRepo, suite.mockInvoiceRepo, nil, testAccountCodes)

	suite.enrollment = domain.Enrollment{
		EnrollmentID: "enr-1",
		StudentID:    "stu-1",
		CourseID:     "crs-1",
		Fee:          decimal.NewFromInt(1000),
		BranchID:     "BLR",
	}
}

func (suite *LedgerHandlersTestSuite) postedJournal() *domain.Journal {
	return &domain.Journal{JournalID: uuid.NewString(), Status: domain.Posted, Reference: "JV-000001"}
}

// --- GenerateInvoice ---

func (suite *LedgerHandlersTestSuite) TestGenerateInvoice_Success() {
	ctx := context.Background()
	event := &domain.EnrollmentCreatedEvent{Enrollment: suite.enrollment}

	var saved domain.Invoice
	suite.mockInvoiceRepo.On("SaveInvoice", ctx, mock.AnythingOfType("domain.Invoice")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.Invoice)
		}).Return(nil).Once()

	err := suite.handlers.GenerateInvoice(ctx, event)

	suite.Require().NoError(err)
	suite.Equal("enr-1", saved.EnrollmentID)
	suite.True(saved.Amount.Equal(decimal.NewFromInt(1000)))
	suite.Equal(domain.InvoiceOpen, saved.Status)
	suite.Nil(saved.JournalID)
}

func (suite *LedgerHandlersTestSuite) TestGenerateInvoice_DuplicateIsNoOp() {
	ctx := context.Background()
	event := &domain.EnrollmentCreatedEvent{Enrollment: suite.enrollment}

	suite.mockInvoiceRepo.On("SaveInvoice", ctx, mock.AnythingOfType("domain.Invoice")).Return(apperrors.ErrDuplicate).Once()

	err := suite.handlers.GenerateInvoice(ctx, event)

	// Replayed events must not fail on the unique constraint.
	suite.Require().NoError(err)
}

func (suite *LedgerHandlersTestSuite) TestGenerateInvoice_WrongEventType() {
	ctx := context.Background()
	event := &domain.PaymentPaidEvent{}

	err := suite.handlers.GenerateInvoice(ctx, event)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- PostDeferredRevenue ---

func (suite *LedgerHandlersTestSuite) TestPostDeferredRevenue_PostsReceivableAgainstDeferred() {
	ctx := context.Background()
	event := &domain.EnrollmentCreatedEvent{Enrollment: suite.enrollment}
	journal := suite.postedJournal()

	var req dto.CreateJournalRequest
	var key *string
	var actor domain.Actor
	suite.mockPosting.On("PostDirect", ctx, mock.AnythingOfType("dto.CreateJournalRequest"), mock.AnythingOfType("*string"), mock.AnythingOfType("domain.Actor")).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(dto.CreateJournalRequest)
			key = args.Get(2).(*string)
			actor = args.Get(3).(domain.Actor)
		}).Return(journal, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByEnrollmentID", ctx, "enr-1").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.handlers.PostDeferredRevenue(ctx, event)

	suite.Require().NoError(err)
	suite.Require().NotNil(key)
	suite.Equal("enrollment:enr-1:deferred-revenue", *key)
	suite.Equal("system", actor.UserID)
	suite.Equal("BLR", actor.BranchID)

	suite.Require().Len(req.Lines, 2)
	suite.Equal("1200", req.Lines[0].AccountCode)
	suite.True(req.Lines[0].Debit.Equal(decimal.NewFromInt(1000)))
	suite.Equal("2300", req.Lines[1].AccountCode)
	suite.True(req.Lines[1].Credit.Equal(decimal.NewFromInt(1000)))
	suite.Require().NotNil(req.Lines[0].Source)
	suite.Equal(domain.SourceEnrollment, req.Lines[0].Source.Kind)
	suite.Equal("enr-1", req.Lines[0].Source.ID)
}

func (suite *LedgerHandlersTestSuite) TestPostDeferredRevenue_LinksInvoice() {
	ctx := context.Background()
	event := &domain.EnrollmentCreatedEvent{Enrollment: suite.enrollment}
	journal := suite.postedJournal()
	invoice := &domain.Invoice{InvoiceID: uuid.NewString(), EnrollmentID: "enr-1"}

	suite.mockPosting.On("PostDirect", ctx, mock.Anything, mock.Anything, mock.Anything).Return(journal, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByEnrollmentID", ctx, "enr-1").Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("LinkJournal", ctx, invoice.InvoiceID, journal.JournalID, "system", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.handlers.PostDeferredRevenue(ctx, event)

	suite.Require().NoError(err)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *LedgerHandlersTestSuite) TestPostDeferredRevenue_AlreadyLinkedInvoiceSkipped() {
	ctx := context.Background()
	event := &domain.EnrollmentCreatedEvent{Enrollment: suite.enrollment}
	journal := suite.postedJournal()
	linked := journal.JournalID
	invoice := &domain.Invoice{InvoiceID: uuid.NewString(), EnrollmentID: "enr-1", JournalID: &linked}

	suite.mockPosting.On("PostDirect", ctx, mock.Anything, mock.Anything, mock.Anything).Return(journal, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByEnrollmentID", ctx, "enr-1").Return(invoice, nil).Once()

	err := suite.handlers.PostDeferredRevenue(ctx, event)

	suite.Require().NoError(err)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "LinkJournal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- PostCashReceipt ---

func (suite *LedgerHandlersTestSuite) TestPostCashReceipt_PostsCashAgainstReceivable() {
	ctx := context.Background()
	event := &domain.PaymentPaidEvent{
		Payment: domain.Payment{
			PaymentID:    "pay-1",
			EnrollmentID: "enr-1",
			Amount:       decimal.NewFromInt(1000),
			BranchID:     "BLR",
		},
	}

	var req dto.CreateJournalRequest
	var key *string
	suite.mockPosting.On("PostDirect", ctx, mock.AnythingOfType("dto.CreateJournalRequest"), mock.AnythingOfType("*string"), mock.AnythingOfType("domain.Actor")).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(dto.CreateJournalRequest)
			key = args.Get(2).(*string)
		}).Return(suite.postedJournal(), nil).Once()

	err := suite.handlers.PostCashReceipt(ctx, event)

	suite.Require().NoError(err)
	suite.Equal("payment:pay-1:cash-receipt", *key)
	suite.Require().Len(req.Lines, 2)
	suite.Equal("1000", req.Lines[0].AccountCode)
	suite.True(req.Lines[0].Debit.Equal(decimal.NewFromInt(1000)))
	suite.Equal("1200", req.Lines[1].AccountCode)
	suite.True(req.Lines[1].Credit.Equal(decimal.NewFromInt(1000)))
}

// --- RecognizeRevenue ---

func (suite *LedgerHandlersTestSuite) TestRecognizeRevenue_FullFeeWhenAmountZero() {
	ctx := context.Background()
	event := &domain.EnrollmentCompletedEvent{Enrollment: suite.enrollment}

	var req dto.CreateJournalRequest
	var key *string
	suite.mockPosting.On("PostDirect", ctx, mock.AnythingOfType("dto.CreateJournalRequest"), mock.AnythingOfType("*string"), mock.AnythingOfType("domain.Actor")).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(dto.CreateJournalRequest)
			key = args.Get(2).(*string)
		}).Return(suite.postedJournal(), nil).Once()

	err := suite.handlers.RecognizeRevenue(ctx, event)

	suite.Require().NoError(err)
	suite.Equal("enrollment:enr-1:revenue-recognition", *key)
	suite.Require().Len(req.Lines, 2)
	suite.Equal("2300", req.Lines[0].AccountCode)
	suite.True(req.Lines[0].Debit.Equal(decimal.NewFromInt(1000)))
	suite.Equal("4000", req.Lines[1].AccountCode)
	suite.True(req.Lines[1].Credit.Equal(decimal.NewFromInt(1000)))
}

func (suite *LedgerHandlersTestSuite) TestRecognizeRevenue_PartialAmount() {
	ctx := context.Background()
	event := &domain.EnrollmentCompletedEvent{
		Enrollment: suite.enrollment,
		Amount:     decimal.NewFromInt(400),
	}

	var req dto.CreateJournalRequest
	suite.mockPosting.On("PostDirect", ctx, mock.AnythingOfType("dto.CreateJournalRequest"), mock.AnythingOfType("*string"), mock.AnythingOfType("domain.Actor")).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(dto.CreateJournalRequest)
		}).Return(suite.postedJournal(), nil).Once()

	err := suite.handlers.RecognizeRevenue(ctx, event)

	suite.Require().NoError(err)
	suite.True(req.Lines[0].Debit.Equal(decimal.NewFromInt(400)))
	suite.True(req.Lines[1].Credit.Equal(decimal.NewFromInt(400)))
}

// --- PostRefundEntry ---

func (suite *LedgerHandlersTestSuite) refundEvent() *domain.RefundCreatedEvent {
	return &domain.RefundCreatedEvent{
		Refund: domain.Refund{
			RefundID:     "ref-1",
			PaymentID:    "pay-1",
			EnrollmentID: "enr-1",
			Amount:       decimal.NewFromInt(400),
			BranchID:     "BLR",
		},
	}
}

func (suite *LedgerHandlersTestSuite) TestPostRefundEntry_DebitsRevenueWhenRecognized() {
	ctx := context.Background()
	recognition := suite.postedJournal()

	suite.mockJournalRepo.On("FindJournalByIdempotencyKey", ctx, "enrollment:enr-1:revenue-recognition").Return(recognition, nil).Once()

	var req dto.CreateJournalRequest
	var key *string
	suite.mockPosting.On("PostDirect", ctx, mock.AnythingOfType("dto.CreateJournalRequest"), mock.AnythingOfType("*string"), mock.AnythingOfType("domain.Actor")).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(dto.CreateJournalRequest)
			key = args.Get(2).(*string)
		}).Return(suite.postedJournal(), nil).Once()

	err := suite.handlers.PostRefundEntry(ctx, suite.refundEvent())

	suite.Require().NoError(err)
	suite.Equal("refund:ref-1:refund-entry", *key)
	suite.Require().Len(req.Lines, 2)
	// Revenue was earned, so the refund claws it back.
	suite.Equal("4000", req.Lines[0].AccountCode)
	suite.True(req.Lines[0].Debit.Equal(decimal.NewFromInt(400)))
	suite.Equal("1000", req.Lines[1].AccountCode)
	suite.True(req.Lines[1].Credit.Equal(decimal.NewFromInt(400)))
}

func (suite *LedgerHandlersTestSuite) TestPostRefundEntry_DebitsDeferredWhenUnrecognized() {
	ctx := context.Background()

	suite.mockJournalRepo.On("FindJournalByIdempotencyKey", ctx, "enrollment:enr-1:revenue-recognition").Return(nil, apperrors.ErrNotFound).Once()

	var req dto.CreateJournalRequest
	suite.mockPosting.On("PostDirect", ctx, mock.AnythingOfType("dto.CreateJournalRequest"), mock.AnythingOfType("*string"), mock.AnythingOfType("domain.Actor")).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(dto.CreateJournalRequest)
		}).Return(suite.postedJournal(), nil).Once()

	err := suite.handlers.PostRefundEntry(ctx, suite.refundEvent())

	suite.Require().NoError(err)
	// The fee still sits in deferred revenue.
	suite.Equal("2300", req.Lines[0].AccountCode)
}

func (suite *LedgerHandlersTestSuite) TestPostRefundEntry_LookupFailurePropagates() {
	ctx := context.Background()

	suite.mockJournalRepo.On("FindJournalByIdempotencyKey", ctx, "enrollment:enr-1:revenue-recognition").Return(nil, apperrors.ErrStorageUnavailable).Once()

	err := suite.handlers.PostRefundEntry(ctx, suite.refundEvent())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrStorageUnavailable)
	suite.mockPosting.AssertNotCalled(suite.T(), "PostDirect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlersTestSuite))
}
