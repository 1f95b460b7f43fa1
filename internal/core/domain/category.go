package domain

import (
	"fmt"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
)

// Category classifies an exeat request and determines the approval chain it
// must pass. The set is closed; requests carrying any other value are rejected
// at creation time.
type Category string

const (
	CategoryWeekend   Category = "weekend"
	CategoryMedical   Category = "medical"
	CategoryEmergency Category = "emergency"
	CategoryAcademic  Category = "academic"
	CategoryOther     Category = "other"
)

// ApprovalPolicy holds the category → chain table. It is configuration data:
// the default table below reflects current student-affairs policy and can be
// replaced wholesale without touching the transition engine.
type ApprovalPolicy struct {
	chains map[Category][]Stage
}

// DefaultApprovalPolicy returns the standing policy table.
//
// Weekend leave passes every stage. Medical leave starts at the campus
// medical director and skips parent consent and hostel clearance. Emergency
// leave skips the CMD recommendation but requires parent consent. Academic
// trips only need the dean's office.
func DefaultApprovalPolicy() *ApprovalPolicy {
	return &ApprovalPolicy{
		chains: map[Category][]Stage{
			CategoryWeekend:   {StageCMD, StageDeputyDean, StageParentConsent, StageDean, StageHostelAdmin},
			CategoryMedical:   {StageCMD, StageDeputyDean, StageDean},
			CategoryEmergency: {StageDeputyDean, StageParentConsent, StageDean},
			CategoryAcademic:  {StageDeputyDean, StageDean},
			CategoryOther:     {StageCMD, StageDeputyDean, StageDean, StageHostelAdmin},
		},
	}
}

// NewApprovalPolicy builds a policy from an explicit table. Every chain must
// be a non-empty ordered list of registry stages without repeats.
func NewApprovalPolicy(chains map[Category][]Stage) (*ApprovalPolicy, error) {
	for category, chain := range chains {
		if len(chain) == 0 {
			return nil, fmt.Errorf("%w: category %s has an empty chain", apperrors.ErrValidation, category)
		}
		seen := make(map[Stage]bool, len(chain))
		for _, stage := range chain {
			if !stage.IsKnown() {
				return nil, fmt.Errorf("%w: category %s references unknown stage %s", apperrors.ErrValidation, category, stage)
			}
			if seen[stage] {
				return nil, fmt.Errorf("%w: category %s repeats stage %s", apperrors.ErrValidation, category, stage)
			}
			seen[stage] = true
		}
	}
	return &ApprovalPolicy{chains: chains}, nil
}

// ChainFor resolves the ordered approval chain for a category. It is pure and
// total over the configured category set; anything else fails with
// ErrUnknownCategory. The returned slice is a copy.
func (p *ApprovalPolicy) ChainFor(category Category) ([]Stage, error) {
	chain, ok := p.chains[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownCategory, category)
	}
	out := make([]Stage, len(chain))
	copy(out, chain)
	return out, nil
}

// Categories lists the configured categories.
func (p *ApprovalPolicy) Categories() []Category {
	out := make([]Category, 0, len(p.chains))
	for category := range p.chains {
		out = append(out, category)
	}
	return out
}
