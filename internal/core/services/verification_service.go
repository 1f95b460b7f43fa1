package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	portsrepo "github.com/exeat-ng/exeat_backend/internal/core/ports/repositories"
	portssvc "github.com/exeat-ng/exeat_backend/internal/core/ports/services"
	"github.com/exeat-ng/exeat_backend/internal/dto"
	"github.com/exeat-ng/exeat_backend/internal/platform/config"
)

// verificationGracePeriod extends token validity past the return date so a
// student arriving slightly late can still be matched to their exeat.
const verificationGracePeriod = 24 * time.Hour

// VerificationClaims is the signed QR payload: the exeat id as subject, bound
// to the approval completion timestamp via IssuedAt.
type VerificationClaims struct {
	StudentID string `json:"studentID"`
	Category  string `json:"category"`
	jwt.RegisteredClaims
}

// verificationService issues and validates the QR verification tokens for
// approved exeat requests.
type verificationService struct {
	BaseService
	secret    string
	issuer    string
	exeatRepo portsrepo.ExeatRepositoryFacade
	userRepo  portsrepo.UserRepository
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(cfg *config.Config, exeatRepo portsrepo.ExeatRepositoryFacade, userRepo portsrepo.UserRepository) portssvc.VerificationSvcFacade {
	return &verificationService{
		secret:    cfg.VerificationSecret,
		issuer:    cfg.JWTIssuer,
		exeatRepo: exeatRepo,
		userRepo:  userRepo,
	}
}

// Ensure verificationService implements portssvc.VerificationSvcFacade
var _ portssvc.VerificationSvcFacade = (*verificationService)(nil)

// IssueToken signs the verification payload for a request completing its
// chain. The signature is deterministic for a given (exeat id, completion
// time) pair, so issuance is idempotent by request: re-signing an already
// approved request reproduces the stored token rather than minting a new one.
func (s *verificationService) IssueToken(exeat *domain.ExeatRequest) (string, error) {
	if exeat.ApprovedAt == nil {
		return "", fmt.Errorf("cannot issue verification token: exeat %s has no completion timestamp", exeat.ExeatID)
	}

	claims := VerificationClaims{
		StudentID: exeat.StudentID,
		Category:  string(exeat.Category),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   exeat.ExeatID,
			IssuedAt:  jwt.NewNumericDate(*exeat.ApprovedAt),
			ExpiresAt: jwt.NewNumericDate(exeat.ReturnDate.Add(verificationGracePeriod)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken validates a presented QR payload for gate security. The token
// must carry a valid signature AND match the token stored on a currently
// approved request; a stale or superseded token verifies as invalid rather
// than erroring.
func (s *verificationService) VerifyToken(ctx context.Context, tokenString string) (*dto.VerificationResponse, error) {
	claims := &VerificationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &dto.VerificationResponse{Valid: false, ExeatID: claims.Subject, Reason: "exeat pass has expired"}, nil
		}
		return nil, fmt.Errorf("%w: invalid verification token", apperrors.ErrValidation)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid verification token", apperrors.ErrValidation)
	}

	exeat, err := s.exeatRepo.FindExeatByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &dto.VerificationResponse{Valid: false, ExeatID: claims.Subject, Reason: "no such exeat request"}, nil
		}
		return nil, err
	}

	if exeat.Status != domain.StatusApproved || exeat.QRCode == nil || *exeat.QRCode != tokenString {
		s.LogWarn(ctx, "Verification token does not match an approved request",
			slog.String("exeat_id", claims.Subject),
			slog.String("status", string(exeat.Status)))
		return &dto.VerificationResponse{Valid: false, ExeatID: claims.Subject, Reason: "request is not approved"}, nil
	}

	resp := &dto.VerificationResponse{
		Valid:      true,
		ExeatID:    exeat.ExeatID,
		StudentID:  exeat.StudentID,
		Category:   string(exeat.Category),
		Location:   exeat.Location,
		ApprovedAt: exeat.ApprovedAt,
		ReturnDate: &exeat.ReturnDate,
	}

	if student, err := s.userRepo.FindUserByID(ctx, exeat.StudentID); err == nil {
		resp.StudentName = student.Name
	}

	return resp, nil
}
