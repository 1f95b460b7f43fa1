package repositories

import (
	"context"
	"time"

	"github.com/exeat-ng/exeat_backend/internal/core/domain"
)

// ExeatReader defines read operations for exeat request data
type ExeatReader interface {
	// FindExeatByID retrieves a request with its full approval ledger.
	FindExeatByID(ctx context.Context, exeatID string) (*domain.ExeatRequest, error)

	// ListExeatsByStudent retrieves a paginated list of a student's requests
	// using token-based pagination. Returns the requests, a token for the next
	// page, and an error.
	ListExeatsByStudent(ctx context.Context, studentID string, limit int, nextToken *string) ([]domain.ExeatRequest, *string, error)

	// ListExeatsByStatus retrieves a paginated list of requests awaiting a
	// given status, oldest first. Used to build per-role worklists.
	ListExeatsByStatus(ctx context.Context, status domain.ExeatStatus, limit int, nextToken *string) ([]domain.ExeatRequest, *string, error)
}

// ExeatWriter defines write operations for exeat request data
type ExeatWriter interface {
	// SaveExeat persists a newly created request.
	SaveExeat(ctx context.Context, exeat domain.ExeatRequest) error

	// UpdateStatus moves a request from expected to next status. The update is
	// conditional on the stored status still matching expected; otherwise it
	// fails with apperrors.ErrConflict and nothing is written.
	UpdateStatus(ctx context.Context, exeatID string, expected, next domain.ExeatStatus, updatedBy string, updatedAt time.Time) error

	// ApplyDecision atomically appends a ledger record for stage and advances
	// the request status, conditional on the stored status still matching
	// expected. A stale expected status fails with apperrors.ErrConflict; an
	// existing record for the same stage fails with
	// apperrors.ErrDuplicateDecision. When the decision completes the chain,
	// qrCode and approvedAt carry the issued verification token.
	ApplyDecision(ctx context.Context, exeatID string, expected, next domain.ExeatStatus, stage domain.Stage, record domain.ApprovalRecord, qrCode *string, approvedAt *time.Time) error
}

// ExeatRepositoryFacade combines all exeat repository interfaces
type ExeatRepositoryFacade interface {
	ExeatReader
	ExeatWriter
}
