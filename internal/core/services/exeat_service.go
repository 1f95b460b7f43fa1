package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portsrepo "github.com/exeat-ng/exeat_backend/internal/core/ports/repositories"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/dto"
)

// exeatService implements the exeat request lifecycle: creation, submission,
// and the role-gated decision workflow through the category's approval chain.
type exeatService struct {
	BaseService
	exeatRepo    portsrepo.ExeatRepositoryFacade
	policy       *domain.ApprovalPolicy
	verification portssvc.VerificationSvcFacade
}

// NewExeatService creates a new ExeatService.
func NewExeatService(exeatRepo portsrepo.ExeatRepositoryFacade, policy *domain.ApprovalPolicy, verification portssvc.VerificationSvcFacade) portssvc.ExeatSvcFacade {
	return &exeatService{
		exeatRepo:    exeatRepo,
		policy:       policy,
		verification: verification,
	}
}

// Ensure exeatService implements the portssvc.ExeatSvcFacade interface
var _ portssvc.ExeatSvcFacade = (*exeatService)(nil)

func (s *exeatService) CreateExeat(ctx context.Context, studentID string, req dto.CreateExeatRequest) (*domain.ExeatRequest, []domain.Stage, error) {
	category := domain.Category(req.Category)
	chain, err := s.policy.ChainFor(category)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	exeat := domain.ExeatRequest{
		ExeatID:       uuid.NewString(),
		StudentID:     studentID,
		Category:      category,
		Reason:        req.Reason,
		Location:      req.Location,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Status:        domain.StatusPending,
		Approvals:     map[domain.Stage]domain.ApprovalRecord{},
		SubmittedAt:   now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     studentID,
			LastUpdatedAt: now,
			LastUpdatedBy: studentID,
		},
	}

	if err := s.exeatRepo.SaveExeat(ctx, exeat); err != nil {
		s.LogError(ctx, err, "Failed to save exeat request", slog.String("student_id", studentID))
		return nil, nil, err
	}

	s.LogInfo(ctx, "Exeat request created",
		slog.String("exeat_id", exeat.ExeatID),
		slog.String("category", string(category)))
	return &exeat, chain, nil
}

func (s *exeatService) SubmitExeat(ctx context.Context, exeatID string, actor portssvc.Actor) (*domain.ExeatRequest, []domain.Stage, error) {
	exeat, err := s.exeatRepo.FindExeatByID(ctx, exeatID)
	if err != nil {
		return nil, nil, err
	}

	if actor.Role != domain.RoleStudent || actor.UserID != exeat.StudentID {
		return nil, nil, fmt.Errorf("%w: only the owning student may submit a request", apperrors.ErrForbidden)
	}
	if exeat.Status != domain.StatusPending {
		return nil, nil, fmt.Errorf("%w: request %s is already %s", apperrors.ErrInvalidTransition, exeatID, exeat.Status)
	}

	chain, err := s.policy.ChainFor(exeat.Category)
	if err != nil {
		return nil, nil, err
	}
	first, _ := chain[0].AwaitingStatus()

	now := time.Now().UTC()
	if err := s.exeatRepo.UpdateStatus(ctx, exeatID, domain.StatusPending, first, actor.UserID, now); err != nil {
		return nil, nil, err
	}

	exeat.Status = first
	exeat.LastUpdatedAt = now
	exeat.LastUpdatedBy = actor.UserID

	s.LogInfo(ctx, "Exeat request submitted for approval",
		slog.String("exeat_id", exeatID),
		slog.String("first_stage", string(chain[0])))
	return exeat, chain, nil
}

// CanAct reports whether role owns the request's current stage. It never
// mutates request state.
func (s *exeatService) CanAct(ctx context.Context, role domain.Role, exeat *domain.ExeatRequest) (bool, error) {
	chain, err := s.policy.ChainFor(exeat.Category)
	if err != nil {
		return false, err
	}
	stage, _, err := exeat.CurrentStage(chain)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}
	required, _ := stage.RequiredRole()
	return role == required, nil
}

// SubmitDecision runs the whole transition: authorization gate, engine step,
// ledger append, and completion. The repository applies the effects with an
// optimistic status compare so a racing decision on the same request cannot
// also land.
func (s *exeatService) SubmitDecision(ctx context.Context, exeatID string, actor portssvc.Actor, req dto.SubmitDecisionRequest) (*domain.ExeatRequest, []domain.Stage, error) {
	exeat, err := s.exeatRepo.FindExeatByID(ctx, exeatID)
	if err != nil {
		return nil, nil, err
	}

	chain, err := s.policy.ChainFor(exeat.Category)
	if err != nil {
		return nil, nil, err
	}

	// A gap in the stored ledger means the row was corrupted outside the
	// engine; refuse to build on it.
	if err := exeat.ValidateLedger(chain); err != nil {
		s.LogError(ctx, err, "Approval ledger failed integrity check", slog.String("exeat_id", exeatID))
		return nil, nil, err
	}

	stage, idx, err := exeat.CurrentStage(chain)
	if err != nil {
		return nil, nil, err
	}

	required, _ := stage.RequiredRole()
	if actor.Role != required {
		s.LogWarn(ctx, "Decision denied: role does not own current stage",
			slog.String("exeat_id", exeatID),
			slog.String("stage", string(stage)),
			slog.String("acting_role", string(actor.Role)))
		return nil, nil, fmt.Errorf("%w: stage %s requires role %s", apperrors.ErrUnauthorized, stage, required)
	}

	if _, decided := exeat.Approvals[stage]; decided {
		return nil, nil, fmt.Errorf("%w: exeat %s stage %s", apperrors.ErrDuplicateDecision, exeatID, stage)
	}

	method := domain.DecisionMethod(req.Method)
	if !method.ValidFor(stage) {
		return nil, nil, fmt.Errorf("%w: method %s not allowed at stage %s", apperrors.ErrValidation, method, stage)
	}

	now := time.Now().UTC()
	record := domain.ApprovalRecord{
		Approved:  req.Decision == string(domain.DecisionApprove),
		DecidedBy: actor.UserID,
		DecidedAt: now,
		Method:    method,
		Comment:   req.Comment,
	}

	next := domain.StatusRejected
	var qrCode *string
	var approvedAt *time.Time
	if record.Approved {
		next = domain.NextStatus(chain, idx)
		if next == domain.StatusApproved {
			// Chain exhausted with all-approve: issue the verification token
			// before persisting so the whole completion lands atomically.
			exeat.ApprovedAt = &now
			token, err := s.verification.IssueToken(exeat)
			if err != nil {
				s.LogError(ctx, err, "Failed to issue verification token", slog.String("exeat_id", exeatID))
				return nil, nil, fmt.Errorf("failed to issue verification token: %w", err)
			}
			qrCode = &token
			approvedAt = &now
		}
	}

	if err := s.exeatRepo.ApplyDecision(ctx, exeatID, exeat.Status, next, stage, record, qrCode, approvedAt); err != nil {
		return nil, nil, err
	}

	exeat.Status = next
	exeat.Approvals[stage] = record
	exeat.QRCode = qrCode
	exeat.ApprovedAt = approvedAt
	exeat.LastUpdatedAt = now
	exeat.LastUpdatedBy = actor.UserID

	s.LogInfo(ctx, "Decision recorded",
		slog.String("exeat_id", exeatID),
		slog.String("stage", string(stage)),
		slog.Bool("approved", record.Approved),
		slog.String("new_status", string(next)))
	return exeat, chain, nil
}

func (s *exeatService) GetExeatByID(ctx context.Context, exeatID string, actor portssvc.Actor) (*domain.ExeatRequest, []domain.Stage, error) {
	exeat, err := s.exeatRepo.FindExeatByID(ctx, exeatID)
	if err != nil {
		return nil, nil, err
	}

	// Students may only read their own requests; the coarse student/staff
	// split gates the rest.
	if actor.Role == domain.RoleStudent && actor.UserID != exeat.StudentID {
		return nil, nil, fmt.Errorf("%w: not your request", apperrors.ErrForbidden)
	}

	chain, err := s.policy.ChainFor(exeat.Category)
	if err != nil {
		return nil, nil, err
	}
	return exeat, chain, nil
}

func (s *exeatService) ListExeatsByStudent(ctx context.Context, studentID string, actor portssvc.Actor, params dto.ListExeatsParams) (*dto.ListExeatsResponse, error) {
	if actor.Role == domain.RoleStudent && actor.UserID != studentID {
		return nil, fmt.Errorf("%w: not your requests", apperrors.ErrForbidden)
	}

	exeats, next, err := s.exeatRepo.ListExeatsByStudent(ctx, studentID, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	return s.toListResponse(exeats, next)
}

func (s *exeatService) ListAwaitingActor(ctx context.Context, actor portssvc.Actor, params dto.ListExeatsParams) (*dto.ListExeatsResponse, error) {
	stage, ok := domain.StageForRole(actor.Role)
	if !ok {
		return nil, fmt.Errorf("%w: role %s owns no approval stage", apperrors.ErrForbidden, actor.Role)
	}
	status, _ := stage.AwaitingStatus()

	exeats, next, err := s.exeatRepo.ListExeatsByStatus(ctx, status, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	return s.toListResponse(exeats, next)
}

func (s *exeatService) toListResponse(exeats []domain.ExeatRequest, next *string) (*dto.ListExeatsResponse, error) {
	out := make([]dto.ExeatResponse, len(exeats))
	for i := range exeats {
		chain, err := s.policy.ChainFor(exeats[i].Category)
		if err != nil {
			return nil, err
		}
		out[i] = dto.ToExeatResponse(&exeats[i], chain)
	}
	return &dto.ListExeatsResponse{Exeats: out, NextToken: next}, nil
}
