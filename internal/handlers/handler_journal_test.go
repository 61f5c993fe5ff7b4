package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/InstiTrack/institute_ledger/internal/dto"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
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

// --- Test Suite ---
type JournalHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockPosting *MockPostingService
	jwtSecret   string
	userID      string
}

// generateTestToken creates a signed JWT for testing.
func (suite *JournalHandlerTestSuite) generateTestToken(userID, branchID string) string {
	claims := middleware.LedgerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "itl-test",
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		BranchID: branchID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = uuid.NewString()

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockPosting = new(MockPostingService)

	v1 := suite.router.Group("/api/v1")
	registerJournalRoutes(v1, suite.mockPosting)
}

func (suite *JournalHandlerTestSuite) doRequest(method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID, "BLR"))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *JournalHandlerTestSuite) TestCreateDraft_Success() {
	reqBody := dto.CreateJournalRequest{
		Date:        time.Now().UTC(),
		Description: "Office rent accrual",
		Lines: []dto.CreateJournalLineRequest{
			{AccountCode: "5200", Debit: decimal.NewFromInt(1200)},
			{AccountCode: "2100", Credit: decimal.NewFromInt(1200)},
		},
	}
	journal := &domain.Journal{
		JournalID:   uuid.NewString(),
		Status:      domain.Draft,
		Description: reqBody.Description,
	}

	suite.mockPosting.On("CreateDraft", mock.Anything, mock.AnythingOfType("dto.CreateJournalRequest"), mock.MatchedBy(func(a domain.Actor) bool {
		return a.UserID == suite.userID && a.BranchID == "BLR"
	})).Return(journal, nil).Once()

	w := suite.doRequest(http.MethodPost, "/api/v1/journals", reqBody)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(journal.JournalID, resp.JournalID)
	suite.Equal("DRAFT", resp.Status)
	suite.mockPosting.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateDraft_Unauthorized() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/journals", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *JournalHandlerTestSuite) TestPostJournal_Imbalanced() {
	journalID := uuid.NewString()

	suite.mockPosting.On("Post", mock.Anything, journalID, mock.AnythingOfType("domain.Actor")).
		Return(nil, apperrors.ErrImbalancedJournal).Once()

	w := suite.doRequest(http.MethodPost, fmt.Sprintf("/api/v1/journals/%s/post", journalID), nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *JournalHandlerTestSuite) TestPostJournal_AlreadyPosted() {
	journalID := uuid.NewString()

	suite.mockPosting.On("Post", mock.Anything, journalID, mock.AnythingOfType("domain.Actor")).
		Return(nil, apperrors.ErrAlreadyPosted).Once()

	w := suite.doRequest(http.MethodPost, fmt.Sprintf("/api/v1/journals/%s/post", journalID), nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *JournalHandlerTestSuite) TestVoidJournal_Success() {
	journalID := uuid.NewString()
	reversing := &domain.Journal{
		JournalID:         uuid.NewString(),
		Status:            domain.Posted,
		OriginalJournalID: &journalID,
	}

	suite.mockPosting.On("Void", mock.Anything, journalID, "entered twice", mock.AnythingOfType("domain.Actor")).
		Return(reversing, nil).Once()

	w := suite.doRequest(http.MethodPost, fmt.Sprintf("/api/v1/journals/%s/void", journalID), dto.VoidJournalRequest{Reason: "entered twice"})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.JournalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(reversing.JournalID, resp.JournalID)
	suite.Require().NotNil(resp.OriginalJournalID)
	suite.Equal(journalID, *resp.OriginalJournalID)
}

func (suite *JournalHandlerTestSuite) TestVoidJournal_MissingReason() {
	journalID := uuid.NewString()

	w := suite.doRequest(http.MethodPost, fmt.Sprintf("/api/v1/journals/%s/void", journalID), map[string]string{})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPosting.AssertNotCalled(suite.T(), "Void", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestGetJournal_NotFound() {
	journalID := uuid.NewString()

	suite.mockPosting.On("GetJournalByID", mock.Anything, journalID).Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/journals/"+journalID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *JournalHandlerTestSuite) TestListJournals_InvalidStatus() {
	w := suite.doRequest(http.MethodGet, "/api/v1/journals?status=PENDING", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPosting.AssertNotCalled(suite.T(), "ListJournals", mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestListJournals_PassesQueryParams() {
	resp := &dto.ListJournalsResponse{Journals: []dto.JournalResponse{}}

	suite.mockPosting.On("ListJournals", mock.Anything, mock.MatchedBy(func(p dto.ListJournalsParams) bool {
		return p.BranchID == "BLR" && p.Limit == 5 && p.Status != nil && *p.Status == domain.Posted
	})).Return(resp, nil).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/journals?branchID=BLR&limit=5&status=POSTED", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockPosting.AssertExpectations(suite.T())
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}
