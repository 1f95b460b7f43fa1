package services

import (
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portsrepo "github.com/exeat-ng/exeat_backend/internal/core/ports/repositories"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	policy := domain.DefaultApprovalPolicy()

	// Verification first: the exeat service fires it on completion.
	container.Verification = NewVerificationService(cfg, repos.ExeatRepo, repos.UserRepo)
	container.Exeat = NewExeatService(repos.ExeatRepo, policy, container.Verification)
	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg)
	container.GoogleOAuth = NewGoogleOAuthService(cfg)

	return container
}
