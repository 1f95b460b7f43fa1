package services

import (
	"context"

	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	"github.com/exeat-ng/exeat_backend/internal/dto"
)

// VerificationSvcFacade issues and validates the QR verification tokens bound
// to approved exeat requests.
type VerificationSvcFacade interface {
	// IssueToken produces the signed payload for a request that has completed
	// its chain. The token is deterministically bound to the request id and
	// the approval completion timestamp.
	IssueToken(exeat *domain.ExeatRequest) (string, error)

	// VerifyToken validates a presented token out-of-band (e.g. at the campus
	// gate) and returns the bound request summary. A token whose request is no
	// longer approved or whose return date has passed verifies as invalid, not
	// as an error.
	VerifyToken(ctx context.Context, token string) (*dto.VerificationResponse, error)
}
