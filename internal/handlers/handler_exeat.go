package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/dto"
	"github.com/exeat-ng/exeat_backend/internal/middleware"
)

// Stable error codes for workflow failures that share an HTTP status.
const (
	codeUnknownCategory   = "unknown_category"
	codeUnauthorizedRole  = "unauthorized_role"
	codeInvalidTransition = "invalid_transition"
	codeDuplicateDecision = "duplicate_decision"
	codeConflict          = "conflict"
)

// ExeatHandler handles HTTP requests for the exeat request lifecycle.
type ExeatHandler struct {
	exeatService portssvc.ExeatSvcFacade
}

// NewExeatHandler creates a new ExeatHandler.
func NewExeatHandler(exeatService portssvc.ExeatSvcFacade) *ExeatHandler {
	return &ExeatHandler{
		exeatService: exeatService,
	}
}

// RegisterExeatRoutes sets up the authenticated exeat routes. The worklist is
// open to any approver role, parents included; the service resolves which
// stage the role owns and rejects roles owning none.
func RegisterExeatRoutes(rg *gin.RouterGroup, exeatService portssvc.ExeatSvcFacade) {
	h := NewExeatHandler(exeatService)

	exeats := rg.Group("/exeats")
	{
		exeats.POST("", h.CreateExeat)
		exeats.GET("/worklist", h.GetWorklist)
		exeats.GET("/:exeatID", h.GetExeat)
		exeats.POST("/:exeatID/submit", h.SubmitExeat)
		exeats.POST("/:exeatID/decision", h.SubmitDecision)
	}
	rg.GET("/students/:studentID/exeats", h.ListStudentExeats)
}

func (h *ExeatHandler) actor(c *gin.Context) (portssvc.Actor, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return portssvc.Actor{}, false
	}
	role, ok := middleware.GetRoleFromContext(c)
	if !ok {
		return portssvc.Actor{}, false
	}
	return portssvc.Actor{UserID: userID, Role: role}, true
}

// CreateExeat godoc
// @Summary Create exeat request
// @Description Creates a draft exeat request in pending for the authenticated student.
// @Tags exeats
// @Accept json
// @Produce json
// @Param exeat body dto.CreateExeatRequest true "Exeat Request"
// @Success 201 {object} dto.ExeatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Unknown category"
// @Router /exeats [post]
// @Security BearerAuth
func (h *ExeatHandler) CreateExeat(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	if actor.Role != domain.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Only students may create exeat requests"})
		return
	}

	var req dto.CreateExeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	exeat, chain, err := h.exeatService.CreateExeat(c.Request.Context(), actor.UserID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownCategory) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Unknown exeat category", Code: codeUnknownCategory})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Failed to create exeat", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create exeat request"})
		return
	}
	c.JSON(http.StatusCreated, dto.ToExeatResponse(exeat, chain))
}

// SubmitExeat godoc
// @Summary Submit exeat request
// @Description Routes a pending request to the first stage of its category's approval chain.
// @Tags exeats
// @Produce json
// @Param exeatID path string true "Exeat ID"
// @Success 200 {object} dto.ExeatResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already submitted or terminal"
// @Router /exeats/{exeatID}/submit [post]
// @Security BearerAuth
func (h *ExeatHandler) SubmitExeat(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	exeat, chain, err := h.exeatService.SubmitExeat(c.Request.Context(), c.Param("exeatID"), actor)
	if err != nil {
		h.respondWorkflowError(c, err, "Failed to submit exeat")
		return
	}
	c.JSON(http.StatusOK, dto.ToExeatResponse(exeat, chain))
}

// SubmitDecision godoc
// @Summary Decide on current stage
// @Description Records an approve or reject decision on the request's current stage.
// @Description The acting role must own the stage; at most one decision lands per stage.
// @Tags exeats
// @Accept json
// @Produce json
// @Param exeatID path string true "Exeat ID"
// @Param decision body dto.SubmitDecisionRequest true "Decision"
// @Success 200 {object} dto.ExeatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Role does not own the current stage"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Invalid transition, duplicate decision or concurrent update"
// @Failure 422 {object} ErrorResponse "Unknown category"
// @Router /exeats/{exeatID}/decision [post]
// @Security BearerAuth
func (h *ExeatHandler) SubmitDecision(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.SubmitDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	exeat, chain, err := h.exeatService.SubmitDecision(c.Request.Context(), c.Param("exeatID"), actor, req)
	if err != nil {
		h.respondWorkflowError(c, err, "Failed to record decision")
		return
	}
	c.JSON(http.StatusOK, dto.ToExeatResponse(exeat, chain))
}

// respondWorkflowError maps the workflow error taxonomy onto distinct HTTP
// responses so callers can tell a lost race from a repeated decision.
func (h *ExeatHandler) respondWorkflowError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Exeat request not found"})
	case errors.Is(err, apperrors.ErrUnknownCategory):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Unknown exeat category", Code: codeUnknownCategory})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: codeUnauthorizedRole})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrDuplicateDecision):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Stage already decided", Code: codeDuplicateDecision})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: codeInvalidTransition})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Request changed concurrently, reload and retry", Code: codeConflict})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		middleware.GetLoggerFromCtx(c.Request.Context()).Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// GetExeat godoc
// @Summary Get exeat request
// @Description Returns a request with its resolved chain and approval ledger.
// @Tags exeats
// @Produce json
// @Param exeatID path string true "Exeat ID"
// @Success 200 {object} dto.ExeatResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exeats/{exeatID} [get]
// @Security BearerAuth
func (h *ExeatHandler) GetExeat(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	exeat, chain, err := h.exeatService.GetExeatByID(c.Request.Context(), c.Param("exeatID"), actor)
	if err != nil {
		h.respondWorkflowError(c, err, "Failed to get exeat")
		return
	}
	c.JSON(http.StatusOK, dto.ToExeatResponse(exeat, chain))
}

// ListStudentExeats godoc
// @Summary List a student's exeat requests
// @Description Returns a page of a student's requests, newest first. Students may only list their own.
// @Tags exeats
// @Produce json
// @Param studentID path string true "Student ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListExeatsResponse
// @Failure 403 {object} ErrorResponse
// @Router /students/{studentID}/exeats [get]
// @Security BearerAuth
func (h *ExeatHandler) ListStudentExeats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var params dto.ListExeatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	resp, err := h.exeatService.ListExeatsByStudent(c.Request.Context(), c.Param("studentID"), actor, params)
	if err != nil {
		h.respondWorkflowError(c, err, "Failed to list exeats")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorklist godoc
// @Summary Approver worklist
// @Description Returns requests whose current stage awaits the authenticated role, oldest first.
// @Tags exeats
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListExeatsResponse
// @Failure 403 {object} ErrorResponse
// @Router /exeats/worklist [get]
// @Security BearerAuth
func (h *ExeatHandler) GetWorklist(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var params dto.ListExeatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	resp, err := h.exeatService.ListAwaitingActor(c.Request.Context(), actor, params)
	if err != nil {
		h.respondWorkflowError(c, err, "Failed to load worklist")
		return
	}
	c.JSON(http.StatusOK, resp)
}
