package services

import (
	"context"

	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	"github.com/exeat-ng/exeat_backend/internal/dto"
)

// Actor is the explicit role context for a decision. The core never reads the
// acting role from ambient state; callers resolve it from the verified
// credentials and pass it in.
type Actor struct {
	UserID string
	Role   domain.Role
}

// ExeatReaderSvc defines read operations for exeat requests
type ExeatReaderSvc interface {
	// GetExeatByID retrieves a request. Students may only read their own
	// requests; staff and parents may read any.
	GetExeatByID(ctx context.Context, exeatID string, actor Actor) (*domain.ExeatRequest, []domain.Stage, error)

	// ListExeatsByStudent retrieves a page of a student's requests.
	ListExeatsByStudent(ctx context.Context, studentID string, actor Actor, params dto.ListExeatsParams) (*dto.ListExeatsResponse, error)

	// ListAwaitingActor retrieves the worklist for an approver role: requests
	// whose current stage is owned by that role, oldest first.
	ListAwaitingActor(ctx context.Context, actor Actor, params dto.ListExeatsParams) (*dto.ListExeatsResponse, error)
}

// ExeatWriterSvc defines lifecycle operations before the approval chain starts.
// Mutating operations return the resolved chain alongside the request so
// callers render against the same policy the transition used.
type ExeatWriterSvc interface {
	// CreateExeat creates a draft request in pending for the given student.
	CreateExeat(ctx context.Context, studentID string, req dto.CreateExeatRequest) (*domain.ExeatRequest, []domain.Stage, error)

	// SubmitExeat routes a pending request to the first stage of its
	// category's chain. Only the owning student may submit.
	SubmitExeat(ctx context.Context, exeatID string, actor Actor) (*domain.ExeatRequest, []domain.Stage, error)
}

// ExeatDeciderSvc is the transition engine boundary: role-gated decisions on
// the current stage of a request.
type ExeatDeciderSvc interface {
	// CanAct reports whether the role owns the request's current stage. It has
	// no side effects and never mutates request state.
	CanAct(ctx context.Context, role domain.Role, exeat *domain.ExeatRequest) (bool, error)

	// SubmitDecision validates the actor against the current stage, appends
	// the ledger record, and advances or terminates the request. On the final
	// approval it issues the verification token exactly once. Fails with
	// apperrors.ErrUnauthorized, ErrInvalidTransition, ErrDuplicateDecision,
	// ErrUnknownCategory or ErrConflict as applicable.
	SubmitDecision(ctx context.Context, exeatID string, actor Actor, req dto.SubmitDecisionRequest) (*domain.ExeatRequest, []domain.Stage, error)
}

// ExeatSvcFacade combines all exeat service interfaces
type ExeatSvcFacade interface {
	ExeatReaderSvc
	ExeatWriterSvc
	ExeatDeciderSvc
}
