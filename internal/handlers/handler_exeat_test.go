package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/dto"
	"github.com/exeat-ng/exeat_backend/internal/handlers"
	"github.com/exeat-ng/exeat_backend/internal/middleware"
	"github.com/exeat-ng/exeat_backend/internal/utils"
)

// --- Mock ExeatService ---
type MockExeatService struct {
	mock.Mock
}

func (m *MockExeatService) GetExeatByID(ctx context.Context, exeatID string, actor portssvc.Actor) (*domain.ExeatRequest, []domain.Stage, error) {
	args := m.Called(ctx, exeatID, actor)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.ExeatRequest), args.Get(1).([]domain.Stage), args.Error(2)
}

func (m *MockExeatService) ListExeatsByStudent(ctx context.Context, studentID string, actor portssvc.Actor, params dto.ListExeatsParams) (*dto.ListExeatsResponse, error) {
	args := m.Called(ctx, studentID, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListExeatsResponse), args.Error(1)
}

func (m *MockExeatService) ListAwaitingActor(ctx context.Context, actor portssvc.Actor, params dto.ListExeatsParams) (*dto.ListExeatsResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListExeatsResponse), args.Error(1)
}

func (m *MockExeatService) CreateExeat(ctx context.Context, studentID string, req dto.CreateExeatRequest) (*domain.ExeatRequest, []domain.Stage, error) {
	args := m.Called(ctx, studentID, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.ExeatRequest), args.Get(1).([]domain.Stage), args.Error(2)
}

func (m *MockExeatService) SubmitExeat(ctx context.Context, exeatID string, actor portssvc.Actor) (*domain.ExeatRequest, []domain.Stage, error) {
	args := m.Called(ctx, exeatID, actor)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.ExeatRequest), args.Get(1).([]domain.Stage), args.Error(2)
}

func (m *MockExeatService) CanAct(ctx context.Context, role domain.Role, exeat *domain.ExeatRequest) (bool, error) {
	args := m.Called(ctx, role, exeat)
	return args.Bool(0), args.Error(1)
}

func (m *MockExeatService) SubmitDecision(ctx context.Context, exeatID string, actor portssvc.Actor, req dto.SubmitDecisionRequest) (*domain.ExeatRequest, []domain.Stage, error) {
	args := m.Called(ctx, exeatID, actor, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.ExeatRequest), args.Get(1).([]domain.Stage), args.Error(2)
}

// Ensure mock implements the interface
var _ portssvc.ExeatSvcFacade = (*MockExeatService)(nil)

// --- Test Suite ---
type ExeatHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockExeatService *MockExeatService
	jwtSecret        string
}

func (suite *ExeatHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockExeatService = new(MockExeatService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterExeatRoutes(v1, suite.mockExeatService)
}

func weekendChain() []domain.Stage {
	return []domain.Stage{
		domain.StageCMD,
		domain.StageDeputyDean,
		domain.StageParentConsent,
		domain.StageDean,
		domain.StageHostelAdmin,
	}
}

// generateTestToken creates a signed access token carrying the given role.
func (suite *ExeatHandlerTestSuite) generateTestToken(userID string, role domain.Role) string {
	token, err := utils.GenerateJWT(userID, string(role), suite.jwtSecret, time.Hour, "exeat-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *ExeatHandlerTestSuite) doDecision(userID string, role domain.Role, exeatID string, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/exeats/"+exeatID+"/decision", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID, role))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *ExeatHandlerTestSuite) TestSubmitDecision_Success() {
	exeatID := uuid.NewString()
	deanID := uuid.NewString()
	exeat := &domain.ExeatRequest{
		ExeatID:   exeatID,
		StudentID: uuid.NewString(),
		Category:  domain.CategoryAcademic,
		Status:    domain.StatusApproved,
		Approvals: map[domain.Stage]domain.ApprovalRecord{},
	}

	suite.mockExeatService.On("SubmitDecision",
		mock.Anything,
		exeatID,
		portssvc.Actor{UserID: deanID, Role: domain.RoleDean},
		mock.MatchedBy(func(r dto.SubmitDecisionRequest) bool { return r.Decision == "approve" }),
	).Return(exeat, []domain.Stage{domain.StageDeputyDean, domain.StageDean}, nil).Once()

	w := suite.doDecision(deanID, domain.RoleDean, exeatID, `{"decision":"approve"}`)

	suite.Equal(http.StatusOK, w.Code)
	var body dto.ExeatResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(exeatID, body.ExeatID)
	suite.Equal(string(domain.StatusApproved), body.Status)
	suite.mockExeatService.AssertExpectations(suite.T())
}

func (suite *ExeatHandlerTestSuite) TestSubmitDecision_BadDecisionValue() {
	w := suite.doDecision(uuid.NewString(), domain.RoleDean, uuid.NewString(), `{"decision":"maybe"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockExeatService.AssertNotCalled(suite.T(), "SubmitDecision")
}

func (suite *ExeatHandlerTestSuite) TestSubmitDecision_ErrorMapping() {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, ""},
		{"unknown category", apperrors.ErrUnknownCategory, http.StatusUnprocessableEntity, "unknown_category"},
		{"wrong role", apperrors.ErrUnauthorized, http.StatusForbidden, "unauthorized_role"},
		{"duplicate decision", apperrors.ErrDuplicateDecision, http.StatusConflict, "duplicate_decision"},
		{"invalid transition", apperrors.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"lost race", apperrors.ErrConflict, http.StatusConflict, "conflict"},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			exeatID := uuid.NewString()
			suite.mockExeatService.On("SubmitDecision",
				mock.Anything, exeatID, mock.AnythingOfType("services.Actor"),
				mock.AnythingOfType("dto.SubmitDecisionRequest"),
			).Return(nil, nil, tc.err).Once()

			w := suite.doDecision(uuid.NewString(), domain.RoleDean, exeatID, `{"decision":"approve"}`)

			suite.Equal(tc.wantStatus, w.Code)
			var body handlers.ErrorResponse
			suite.NoError(json.Unmarshal(w.Body.Bytes(), &body))
			suite.Equal(tc.wantCode, body.Code)
		})
	}
	suite.mockExeatService.AssertExpectations(suite.T())
}

func (suite *ExeatHandlerTestSuite) TestCreateExeat_StudentOnly() {
	body := `{"category":"weekend","reason":"family visit","location":"Lagos",` +
		`"departureDate":"2026-09-04T08:00:00Z","returnDate":"2026-09-06T18:00:00Z"}`

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/exeats", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString(), domain.RoleDean))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockExeatService.AssertNotCalled(suite.T(), "CreateExeat")
}

func (suite *ExeatHandlerTestSuite) TestCreateExeat_Success() {
	studentID := uuid.NewString()
	exeat := &domain.ExeatRequest{
		ExeatID:   uuid.NewString(),
		StudentID: studentID,
		Category:  domain.CategoryWeekend,
		Status:    domain.StatusPending,
		Approvals: map[domain.Stage]domain.ApprovalRecord{},
	}

	suite.mockExeatService.On("CreateExeat",
		mock.Anything, studentID,
		mock.MatchedBy(func(r dto.CreateExeatRequest) bool { return r.Category == "weekend" }),
	).Return(exeat, weekendChain(), nil).Once()

	body := `{"category":"weekend","reason":"family visit","location":"Lagos",` +
		`"departureDate":"2026-09-04T08:00:00Z","returnDate":"2026-09-06T18:00:00Z"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/exeats", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(studentID, domain.RoleStudent))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ExeatResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	// The weekend chain is rendered alongside the request state.
	suite.Len(resp.Chain, 5)
	suite.mockExeatService.AssertExpectations(suite.T())
}

func (suite *ExeatHandlerTestSuite) TestWorklist_StudentForbidden() {
	studentID := uuid.NewString()
	suite.mockExeatService.On("ListAwaitingActor",
		mock.Anything,
		portssvc.Actor{UserID: studentID, Role: domain.RoleStudent},
		mock.AnythingOfType("dto.ListExeatsParams"),
	).Return(nil, apperrors.ErrForbidden).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exeats/worklist", nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(studentID, domain.RoleStudent))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockExeatService.AssertExpectations(suite.T())
}

// Parents own the consent stage, so the worklist must be reachable with a
// parent token and not just with staff roles.
func (suite *ExeatHandlerTestSuite) TestWorklist_ParentRole() {
	parentID := uuid.NewString()
	expected := &dto.ListExeatsResponse{Exeats: []dto.ExeatResponse{{ExeatID: uuid.NewString()}}}

	suite.mockExeatService.On("ListAwaitingActor",
		mock.Anything,
		portssvc.Actor{UserID: parentID, Role: domain.RoleParent},
		mock.AnythingOfType("dto.ListExeatsParams"),
	).Return(expected, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exeats/worklist", nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(parentID, domain.RoleParent))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListExeatsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Exeats, 1)
	suite.mockExeatService.AssertExpectations(suite.T())
}

func (suite *ExeatHandlerTestSuite) TestWorklist_Success() {
	deanID := uuid.NewString()
	expected := &dto.ListExeatsResponse{Exeats: []dto.ExeatResponse{{ExeatID: uuid.NewString()}}}

	suite.mockExeatService.On("ListAwaitingActor",
		mock.Anything,
		portssvc.Actor{UserID: deanID, Role: domain.RoleDean},
		mock.AnythingOfType("dto.ListExeatsParams"),
	).Return(expected, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exeats/worklist", nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(deanID, domain.RoleDean))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListExeatsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Exeats, 1)
	suite.mockExeatService.AssertExpectations(suite.T())
}

func (suite *ExeatHandlerTestSuite) TestMissingToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exeats/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

// --- Run Suite ---
func TestExeatHandler(t *testing.T) {
	suite.Run(t, new(ExeatHandlerTestSuite))
}
