package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/InstiTrack/institute_ledger/internal/core/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock EventLogRepository ---
type MockEventLogRepository struct {
	mock.Mock
}

func (m *MockEventLogRepository) RecordDispatch(ctx context.Context, record domain.EventRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockEventLogRepository) MarkOutcome(ctx context.Context, eventType domain.EventType, sourceID string, status domain.DispatchStatus, lastError string, at time.Time) error {
	args := m.Called(ctx, eventType, sourceID, status, lastError, at)
	return args.Error(0)
}

func (m *MockEventLogRepository) ListUnresolved(ctx context.Context, staleAfter time.Duration, limit int) ([]domain.EventRecord, error) {
	args := m.Called(ctx, staleAfter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EventRecord), args.Error(1)
}

// --- Test Suite Setup ---
type RouterTestSuite struct {
	suite.Suite
	mockEventLog *MockEventLogRepository
	router       *events.Router
	event        *domain.PaymentPaidEvent
}

func (suite *RouterTestSuite) SetupTest() {
	suite.mockEventLog = new(MockEventLogRepository)
	suite.router = events.NewRouter(suite.mockEventLog)
	suite.event = &domain.PaymentPaidEvent{
		Payment: domain.Payment{
			PaymentID:    "pay-1",
			EnrollmentID: "enr-1",
			Amount:       decimal.NewFromInt(500),
			BranchID:     "BLR",
		},
	}
}

func (suite *RouterTestSuite) TestDispatch_RunsHandlersInOrder() {
	ctx := context.Background()
	var calls []string
	suite.router.Register(domain.PaymentPaid, "first", func(ctx context.Context, event domain.Event) error {
		calls = append(calls, "first")
		return nil
	})
	suite.router.Register(domain.PaymentPaid, "second", func(ctx context.Context, event domain.Event) error {
		calls = append(calls, "second")
		return nil
	})

	suite.mockEventLog.On("RecordDispatch", ctx, mock.MatchedBy(func(r domain.EventRecord) bool {
		return r.EventType == domain.PaymentPaid && r.SourceID == "pay-1" && r.Status == domain.DispatchReceived
	})).Return(nil).Once()
	suite.mockEventLog.On("MarkOutcome", ctx, domain.PaymentPaid, "pay-1", domain.DispatchPosted, "", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.router.Dispatch(ctx, suite.event)

	suite.Require().NoError(err)
	suite.Equal([]string{"first", "second"}, calls)
	suite.mockEventLog.AssertExpectations(suite.T())
}

func (suite *RouterTestSuite) TestDispatch_OneFailureDoesNotStopOthers() {
	ctx := context.Background()
	boom := errors.New("posting failed")
	var secondRan bool
	suite.router.Register(domain.PaymentPaid, "failing", func(ctx context.Context, event domain.Event) error {
		return boom
	})
	suite.router.Register(domain.PaymentPaid, "surviving", func(ctx context.Context, event domain.Event) error {
		secondRan = true
		return nil
	})

	suite.mockEventLog.On("RecordDispatch", ctx, mock.AnythingOfType("domain.EventRecord")).Return(nil).Once()
	suite.mockEventLog.On("MarkOutcome", ctx, domain.PaymentPaid, "pay-1", domain.DispatchFailed, mock.MatchedBy(func(lastError string) bool {
		return lastError != ""
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.router.Dispatch(ctx, suite.event)

	suite.Require().Error(err)
	suite.ErrorIs(err, boom)
	suite.True(secondRan, "surviving handler should still run")
	suite.mockEventLog.AssertExpectations(suite.T())
}

func (suite *RouterTestSuite) TestDispatch_LogFailureDoesNotBlockHandlers() {
	ctx := context.Background()
	var ran bool
	suite.router.Register(domain.PaymentPaid, "handler", func(ctx context.Context, event domain.Event) error {
		ran = true
		return nil
	})

	suite.mockEventLog.On("RecordDispatch", ctx, mock.AnythingOfType("domain.EventRecord")).Return(apperrors.ErrStorageUnavailable).Once()
	suite.mockEventLog.On("MarkOutcome", ctx, domain.PaymentPaid, "pay-1", domain.DispatchPosted, "", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.router.Dispatch(ctx, suite.event)

	suite.Require().NoError(err)
	suite.True(ran)
}

func (suite *RouterTestSuite) TestDispatchRaw_DecodesAndDispatches() {
	ctx := context.Background()
	payload := []byte(`{"payment":{"paymentID":"pay-1","enrollmentID":"enr-1","amount":"500","branchID":"BLR"}}`)
	var received domain.Event
	suite.router.Register(domain.PaymentPaid, "handler", func(ctx context.Context, event domain.Event) error {
		received = event
		return nil
	})

	suite.mockEventLog.On("RecordDispatch", ctx, mock.AnythingOfType("domain.EventRecord")).Return(nil).Once()
	suite.mockEventLog.On("MarkOutcome", ctx, domain.PaymentPaid, "pay-1", domain.DispatchPosted, "", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.router.DispatchRaw(ctx, domain.PaymentPaid, payload)

	suite.Require().NoError(err)
	ev, ok := received.(*domain.PaymentPaidEvent)
	suite.Require().True(ok)
	suite.Equal("pay-1", ev.Payment.PaymentID)
	suite.True(ev.Payment.Amount.Equal(decimal.NewFromInt(500)))
}

func (suite *RouterTestSuite) TestDispatchRaw_UnknownType() {
	ctx := context.Background()

	err := suite.router.DispatchRaw(ctx, domain.EventType("student.graduated"), []byte(`{}`))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockEventLog.AssertNotCalled(suite.T(), "RecordDispatch", mock.Anything, mock.Anything)
}

func (suite *RouterTestSuite) TestDispatch_NoHandlersIsStillLogged() {
	ctx := context.Background()

	suite.mockEventLog.On("RecordDispatch", ctx, mock.AnythingOfType("domain.EventRecord")).Return(nil).Once()
	suite.mockEventLog.On("MarkOutcome", ctx, domain.PaymentPaid, "pay-1", domain.DispatchPosted, "", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.router.Dispatch(ctx, suite.event)

	suite.Require().NoError(err)
	suite.mockEventLog.AssertExpectations(suite.T())
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
