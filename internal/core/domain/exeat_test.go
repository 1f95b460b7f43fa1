package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
)

func TestChainForKnownCategories(t *testing.T) {
	policy := domain.DefaultApprovalPolicy()

	chain, err := policy.ChainFor(domain.CategoryWeekend)
	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{
		domain.StageCMD,
		domain.StageDeputyDean,
		domain.StageParentConsent,
		domain.StageDean,
		domain.StageHostelAdmin,
	}, chain)

	chain, err = policy.ChainFor(domain.CategoryMedical)
	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{domain.StageCMD, domain.StageDeputyDean, domain.StageDean}, chain)

	chain, err = policy.ChainFor(domain.CategoryAcademic)
	require.NoError(t, err)
	assert.Equal(t, []domain.Stage{domain.StageDeputyDean, domain.StageDean}, chain)
}

func TestChainForUnknownCategory(t *testing.T) {
	policy := domain.DefaultApprovalPolicy()

	chain, err := policy.ChainFor(domain.Category("sabbatical"))
	assert.Nil(t, chain)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCategory)
}

func TestChainForReturnsCopy(t *testing.T) {
	policy := domain.DefaultApprovalPolicy()

	chain, err := policy.ChainFor(domain.CategoryAcademic)
	require.NoError(t, err)
	chain[0] = domain.StageHostelAdmin

	again, err := policy.ChainFor(domain.CategoryAcademic)
	require.NoError(t, err)
	assert.Equal(t, domain.StageDeputyDean, again[0])
}

// Every stage reachable from the default policy must have an owning role and
// an awaiting status, and no two stages may share an awaiting status.
func TestStageRegistryClosure(t *testing.T) {
	policy := domain.DefaultApprovalPolicy()
	seenStatuses := map[domain.ExeatStatus]domain.Stage{}

	for _, category := range policy.Categories() {
		chain, err := policy.ChainFor(category)
		require.NoError(t, err)
		require.NotEmpty(t, chain)

		for _, stage := range chain {
			role, ok := stage.RequiredRole()
			assert.True(t, ok, "stage %s has no owning role", stage)
			assert.NotEmpty(t, role)

			status, ok := stage.AwaitingStatus()
			assert.True(t, ok, "stage %s has no awaiting status", stage)
			if prior, dup := seenStatuses[status]; dup {
				assert.Equal(t, prior, stage, "status %s owned by two stages", status)
			}
			seenStatuses[status] = stage
		}
	}
}

func TestStageForRole(t *testing.T) {
	stage, ok := domain.StageForRole(domain.RoleParent)
	require.True(t, ok)
	assert.Equal(t, domain.StageParentConsent, stage)

	_, ok = domain.StageForRole(domain.RoleStudent)
	assert.False(t, ok)
}

func TestNewApprovalPolicyValidation(t *testing.T) {
	_, err := domain.NewApprovalPolicy(map[domain.Category][]domain.Stage{
		domain.CategoryMedical: {},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = domain.NewApprovalPolicy(map[domain.Category][]domain.Stage{
		domain.CategoryMedical: {domain.Stage("bursar")},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = domain.NewApprovalPolicy(map[domain.Category][]domain.Stage{
		domain.CategoryMedical: {domain.StageDean, domain.StageDean},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	policy, err := domain.NewApprovalPolicy(map[domain.Category][]domain.Stage{
		domain.CategoryMedical: {domain.StageCMD, domain.StageDean},
	})
	require.NoError(t, err)
	chain, err := policy.ChainFor(domain.CategoryMedical)
	require.NoError(t, err)
	assert.Len(t, chain, 2)
}

func TestCurrentStageTraversal(t *testing.T) {
	policy := domain.DefaultApprovalPolicy()
	chain, err := policy.ChainFor(domain.CategoryWeekend)
	require.NoError(t, err)

	exeat := &domain.ExeatRequest{
		ExeatID:  "ex-1",
		Category: domain.CategoryWeekend,
		Status:   domain.StatusRecommendation1,
	}

	stage, idx, err := exeat.CurrentStage(chain)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCMD, stage)
	assert.Equal(t, 0, idx)

	exeat.Status = domain.StatusHostelApproval
	stage, idx, err = exeat.CurrentStage(chain)
	require.NoError(t, err)
	assert.Equal(t, domain.StageHostelAdmin, stage)
	assert.Equal(t, 4, idx)
}

func TestCurrentStageInvalidStates(t *testing.T) {
	policy := domain.DefaultApprovalPolicy()
	chain, err := policy.ChainFor(domain.CategoryAcademic)
	require.NoError(t, err)

	exeat := &domain.ExeatRequest{ExeatID: "ex-1", Category: domain.CategoryAcademic}

	exeat.Status = domain.StatusPending
	_, _, err = exeat.CurrentStage(chain)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	exeat.Status = domain.StatusApproved
	_, _, err = exeat.CurrentStage(chain)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	exeat.Status = domain.StatusRejected
	_, _, err = exeat.CurrentStage(chain)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	// Academic chain has no parent consent stage.
	exeat.Status = domain.StatusParentConsent
	_, _, err = exeat.CurrentStage(chain)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestNextStatus(t *testing.T) {
	chain := []domain.Stage{domain.StageDeputyDean, domain.StageDean}

	assert.Equal(t, domain.StatusDeanApproval, domain.NextStatus(chain, 0))
	assert.Equal(t, domain.StatusApproved, domain.NextStatus(chain, 1))
}

func TestValidateLedger(t *testing.T) {
	chain := []domain.Stage{domain.StageCMD, domain.StageDeputyDean, domain.StageDean}
	now := time.Now().UTC()

	exeat := &domain.ExeatRequest{
		Approvals: map[domain.Stage]domain.ApprovalRecord{
			domain.StageCMD:        {Approved: true, DecidedAt: now},
			domain.StageDeputyDean: {Approved: true, DecidedAt: now},
		},
	}
	assert.NoError(t, exeat.ValidateLedger(chain))

	// A decision at dean with the deputy dean stage undecided is a gap.
	exeat.Approvals = map[domain.Stage]domain.ApprovalRecord{
		domain.StageCMD:  {Approved: true, DecidedAt: now},
		domain.StageDean: {Approved: true, DecidedAt: now},
	}
	assert.Error(t, exeat.ValidateLedger(chain))
}

func TestDecisionMethodValidFor(t *testing.T) {
	assert.True(t, domain.MethodPhone.ValidFor(domain.StageParentConsent))
	assert.False(t, domain.MethodPhone.ValidFor(domain.StageDean))
	assert.True(t, domain.MethodInPerson.ValidFor(domain.StageDean))
	assert.True(t, domain.DecisionMethod("").ValidFor(domain.StageCMD))
	assert.False(t, domain.DecisionMethod("carrier_pigeon").ValidFor(domain.StageParentConsent))
}
