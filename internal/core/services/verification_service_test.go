package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/core/services"
	"github.com/exeat-ng/exeat_backend/internal/platform/config"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedBy string, deletedAt time.Time) error {
	args := m.Called(ctx, userID, deletedBy, deletedAt)
	return args.Error(0)
}

// --- Test Suite ---
type VerificationServiceTestSuite struct {
	suite.Suite
	mockExeatRepo *MockExeatRepository
	mockUserRepo  *MockUserRepository
	service       portssvc.VerificationSvcFacade
}

func (suite *VerificationServiceTestSuite) SetupTest() {
	suite.mockExeatRepo = new(MockExeatRepository)
	suite.mockUserRepo = new(MockUserRepository)
	cfg := &config.Config{
		VerificationSecret: "test-verification-secret",
		JWTIssuer:          "exeat-backend-test",
	}
	suite.service = services.NewVerificationService(cfg, suite.mockExeatRepo, suite.mockUserRepo)
}

func (suite *VerificationServiceTestSuite) approvedExeat() *domain.ExeatRequest {
	now := time.Now().UTC().Truncate(time.Second)
	approvedAt := now
	return &domain.ExeatRequest{
		ExeatID:       uuid.NewString(),
		StudentID:     uuid.NewString(),
		Category:      domain.CategoryWeekend,
		Location:      "Abuja",
		DepartureDate: now.Add(24 * time.Hour),
		ReturnDate:    now.Add(72 * time.Hour),
		Status:        domain.StatusApproved,
		Approvals:     map[domain.Stage]domain.ApprovalRecord{},
		SubmittedAt:   now,
		ApprovedAt:    &approvedAt,
	}
}

func (suite *VerificationServiceTestSuite) TestIssueToken_RequiresCompletion() {
	exeat := suite.approvedExeat()
	exeat.ApprovedAt = nil

	_, err := suite.service.IssueToken(exeat)

	suite.Error(err)
}

func (suite *VerificationServiceTestSuite) TestIssueToken_Deterministic() {
	exeat := suite.approvedExeat()

	first, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)
	second, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *VerificationServiceTestSuite) TestVerifyToken_RoundTrip() {
	ctx := context.Background()
	exeat := suite.approvedExeat()
	token, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)
	exeat.QRCode = &token

	suite.mockExeatRepo.On("FindExeatByID", ctx, exeat.ExeatID).Return(exeat, nil).Once()
	suite.mockUserRepo.On("FindUserByID", ctx, exeat.StudentID).
		Return(&domain.User{UserID: exeat.StudentID, Name: "Ada Obi"}, nil).Once()

	resp, err := suite.service.VerifyToken(ctx, token)

	suite.Require().NoError(err)
	suite.True(resp.Valid)
	suite.Equal(exeat.ExeatID, resp.ExeatID)
	suite.Equal(exeat.StudentID, resp.StudentID)
	suite.Equal("Ada Obi", resp.StudentName)
	suite.Equal(string(domain.CategoryWeekend), resp.Category)
	suite.mockExeatRepo.AssertExpectations(suite.T())
}

func (suite *VerificationServiceTestSuite) TestVerifyToken_TamperedSignature() {
	ctx := context.Background()
	exeat := suite.approvedExeat()
	token, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)

	resp, err := suite.service.VerifyToken(ctx, token+"x")

	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockExeatRepo.AssertNotCalled(suite.T(), "FindExeatByID")
}

func (suite *VerificationServiceTestSuite) TestVerifyToken_ExpiredIsInvalidNotError() {
	ctx := context.Background()
	exeat := suite.approvedExeat()
	// Return window (plus grace) already closed.
	past := time.Now().UTC().Add(-96 * time.Hour)
	exeat.ApprovedAt = &past
	exeat.ReturnDate = past.Add(24 * time.Hour)

	token, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)

	resp, err := suite.service.VerifyToken(ctx, token)

	suite.Require().NoError(err)
	suite.False(resp.Valid)
	suite.Equal(exeat.ExeatID, resp.ExeatID)
	suite.NotEmpty(resp.Reason)
}

func (suite *VerificationServiceTestSuite) TestVerifyToken_RequestNoLongerApproved() {
	ctx := context.Background()
	exeat := suite.approvedExeat()
	token, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)
	exeat.QRCode = &token
	exeat.Status = domain.StatusRejected

	suite.mockExeatRepo.On("FindExeatByID", ctx, exeat.ExeatID).Return(exeat, nil).Once()

	resp, err := suite.service.VerifyToken(ctx, token)

	suite.Require().NoError(err)
	suite.False(resp.Valid)
	suite.mockExeatRepo.AssertExpectations(suite.T())
}

func (suite *VerificationServiceTestSuite) TestVerifyToken_StoredTokenMismatch() {
	ctx := context.Background()
	exeat := suite.approvedExeat()
	token, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)
	other := "a-different-stored-token"
	exeat.QRCode = &other

	suite.mockExeatRepo.On("FindExeatByID", ctx, exeat.ExeatID).Return(exeat, nil).Once()

	resp, err := suite.service.VerifyToken(ctx, token)

	suite.Require().NoError(err)
	suite.False(resp.Valid)
}

func (suite *VerificationServiceTestSuite) TestVerifyToken_UnknownRequest() {
	ctx := context.Background()
	exeat := suite.approvedExeat()
	token, err := suite.service.IssueToken(exeat)
	suite.Require().NoError(err)

	suite.mockExeatRepo.On("FindExeatByID", ctx, exeat.ExeatID).Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.VerifyToken(ctx, token)

	suite.Require().NoError(err)
	suite.False(resp.Valid)
}

// --- Run Suite ---
func TestVerificationService(t *testing.T) {
	suite.Run(t, new(VerificationServiceTestSuite))
}
