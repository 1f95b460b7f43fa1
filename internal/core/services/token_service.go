package services

import (
	"context"
	"time"

	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/platform/config"
	"github.com/exeat-ng/exeat_backend/internal/utils"
)

// tokenService implements the TokenSvcFacade for issuing access tokens.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

// Ensure tokenService implements portssvc.TokenSvcFacade
var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken creates a new JWT access token carrying the user's id
// and role.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)

	accessToken, err := utils.GenerateJWT(user.UserID, string(user.Role), s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiryTime, nil
}
