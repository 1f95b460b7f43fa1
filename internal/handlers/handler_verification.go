package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/middleware"
)

// VerificationHandler handles QR token checks at the gate. The endpoint is
// public: gate security scans a student's code without signing in.
type VerificationHandler struct {
	verificationService portssvc.VerificationSvcFacade
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(verificationService portssvc.VerificationSvcFacade) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

// registerVerificationRoutes sets up the public verification route.
func registerVerificationRoutes(r *gin.Engine, verificationService portssvc.VerificationSvcFacade) {
	h := NewVerificationHandler(verificationService)
	r.GET("/api/v1/verify/:token", h.VerifyToken)
}

// VerifyToken godoc
// @Summary Verify exeat QR token
// @Description Validates a scanned QR token and returns the bound request summary.
// @Description A token whose request is no longer approved or whose return window
// @Description has closed verifies as invalid rather than failing.
// @Tags verification
// @Produce json
// @Param token path string true "QR Token"
// @Success 200 {object} dto.VerificationResponse
// @Failure 400 {object} ErrorResponse
// @Router /verify/{token} [get]
func (h *VerificationHandler) VerifyToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Token required"})
		return
	}

	resp, err := h.verificationService.VerifyToken(c.Request.Context(), token)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Verification failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Token could not be verified"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
