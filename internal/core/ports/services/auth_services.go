package services

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"

	"github.com/exeat-ng/exeat_backend/internal/core/domain"
)

// TokenSvcFacade issues and validates application access tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken creates a signed JWT carrying the user's id and role.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
}

// GoogleOAuthSvcFacade wraps the Google OAuth code exchange and ID token
// validation used by the institutional sign-in flow.
type GoogleOAuthSvcFacade interface {
	// GetAuthCodeURL builds the Google consent page URL for the given state.
	GetAuthCodeURL(state string) string

	// ExchangeCodeForToken exchanges an authorization code for Google tokens.
	ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error)

	// ValidateGoogleIDToken verifies the ID token signature and audience.
	ValidateGoogleIDToken(ctx context.Context, idToken string) (*idtoken.Payload, error)
}
