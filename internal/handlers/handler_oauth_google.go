package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/dto"
	"github.com/exeat-ng/exeat_backend/internal/middleware"
	"github.com/exeat-ng/exeat_backend/internal/utils"
)

// GoogleOAuthHandler handles the institutional Google sign-in flow.
type GoogleOAuthHandler struct {
	oauthService portssvc.GoogleOAuthSvcFacade
	userService  portssvc.UserSvcFacade
	tokenService portssvc.TokenSvcFacade
}

// NewGoogleOAuthHandler creates a new GoogleOAuthHandler.
func NewGoogleOAuthHandler(oauthService portssvc.GoogleOAuthSvcFacade, userService portssvc.UserSvcFacade, tokenService portssvc.TokenSvcFacade) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		oauthService: oauthService,
		userService:  userService,
		tokenService: tokenService,
	}
}

// registerGoogleOAuthRoutes sets up the routes for Google sign-in.
func registerGoogleOAuthRoutes(r *gin.Engine, oauthService portssvc.GoogleOAuthSvcFacade, userService portssvc.UserSvcFacade, tokenService portssvc.TokenSvcFacade) {
	h := NewGoogleOAuthHandler(oauthService, userService, tokenService)

	oauth := r.Group("/api/v1/auth/google")
	{
		oauth.GET("/url", h.GetAuthURL)
		oauth.POST("/exchange", h.ExchangeCode)
	}
}

// GetAuthURL godoc
// @Summary Google consent URL
// @Description Returns the Google consent page URL with a fresh state value.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/google/url [get]
func (h *GoogleOAuthHandler) GetAuthURL(c *gin.Context) {
	state, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":   h.oauthService.GetAuthCodeURL(state),
		"state": state,
	})
}

// ExchangeCode godoc
// @Summary Exchange Google authorization code
// @Description Exchanges the authorization code, validates the ID token and
// @Description signs the caller in, provisioning a student account on first use.
// @Tags auth
// @Accept json
// @Produce json
// @Param exchange body dto.ExchangeCodeRequest true "Authorization Code"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/google/exchange [post]
func (h *GoogleOAuthHandler) ExchangeCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	oauthToken, err := h.oauthService.ExchangeCodeForToken(c.Request.Context(), req.Code)
	if err != nil {
		logger.Warn("Authorization code exchange failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid authorization code"})
		return
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		logger.Error("ID token missing from exchange response")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "ID token missing from provider response"})
		return
	}

	payload, err := h.oauthService.ValidateGoogleIDToken(c.Request.Context(), rawIDToken)
	if err != nil {
		logger.Warn("ID token validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid ID token"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Email claim missing from ID token"})
		return
	}

	user, err := h.userService.FindOrCreateOAuthUser(c.Request.Context(), email, name)
	if err != nil {
		logger.Error("Failed to resolve OAuth user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign in"})
		return
	}

	token, expiresAt, err := h.tokenService.GenerateAccessToken(c.Request.Context(), user)
	if err != nil {
		logger.Error("Failed to sign access token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.ToUserResponse(user),
	})
}
