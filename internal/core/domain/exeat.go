package domain

import (
	"fmt"
	"time"

	"github.com/exeat-ng/exeat_backend/internal/apperrors"
)

// ExeatStatus is the current position of a request in its lifecycle. The
// per-stage statuses mean "awaiting a decision at that stage"; a request
// carrying one of them can only be acted on by the role owning that stage.
type ExeatStatus string

const (
	StatusPending         ExeatStatus = "pending" // created, not yet routed to approvers
	StatusRecommendation1 ExeatStatus = "recommendation1"
	StatusRecommendation2 ExeatStatus = "recommendation2"
	StatusParentConsent   ExeatStatus = "parent_consent"
	StatusDeanApproval    ExeatStatus = "dean_approval"
	StatusHostelApproval  ExeatStatus = "hostel_approval"
	StatusApproved        ExeatStatus = "approved" // terminal
	StatusRejected        ExeatStatus = "rejected" // terminal
)

// IsTerminal reports whether no further transitions are permitted.
func (s ExeatStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is an approver's verdict on the current stage.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// DecisionMethod records how a consent was obtained. Only the parent consent
// stage distinguishes methods; staff stages are always decided in person.
type DecisionMethod string

const (
	MethodInPerson DecisionMethod = "in_person"
	MethodPhone    DecisionMethod = "phone"
)

// ValidFor reports whether the method may be recorded at the given stage.
func (m DecisionMethod) ValidFor(stage Stage) bool {
	switch m {
	case "":
		return true
	case MethodInPerson:
		return true
	case MethodPhone:
		return stage == StageParentConsent
	}
	return false
}

// ApprovalRecord is one immutable ledger entry: a single decision at a single
// stage. Once written for a request+stage it is never updated.
type ApprovalRecord struct {
	Approved  bool           `json:"approved"`
	DecidedBy string         `json:"decidedBy"` // UserID of the approver
	DecidedAt time.Time      `json:"decidedAt"`
	Method    DecisionMethod `json:"method,omitempty"`
	Comment   string         `json:"comment,omitempty"`
}

// ExeatRequest is the aggregate root: a student's request for temporary leave
// from campus, tracked through its category's approval chain.
type ExeatRequest struct {
	ExeatID       string                   `json:"exeatID"` // Primary Key (UUID), immutable
	StudentID     string                   `json:"studentID"`
	Category      Category                 `json:"category"` // immutable after creation
	Reason        string                   `json:"reason"`
	Location      string                   `json:"location"`
	DepartureDate time.Time                `json:"departureDate"`
	ReturnDate    time.Time                `json:"returnDate"`
	Status        ExeatStatus              `json:"status"`
	Approvals     map[Stage]ApprovalRecord `json:"approvals"`
	QRCode        *string                  `json:"qrCode,omitempty"` // set only on approval, never directly
	SubmittedAt   time.Time                `json:"submittedAt"`
	ApprovedAt    *time.Time               `json:"approvedAt,omitempty"`
	AuditFields
}

// CurrentStage resolves which stage of the given chain the request is
// awaiting, along with its position. Fails if the request is terminal, still
// pending, or carries a status that is not part of the chain.
func (e *ExeatRequest) CurrentStage(chain []Stage) (Stage, int, error) {
	if e.Status.IsTerminal() {
		return "", -1, fmt.Errorf("%w: request %s is already %s", apperrors.ErrInvalidTransition, e.ExeatID, e.Status)
	}
	if e.Status == StatusPending {
		return "", -1, fmt.Errorf("%w: request %s has not been submitted", apperrors.ErrInvalidTransition, e.ExeatID)
	}
	for i, stage := range chain {
		status, ok := stage.AwaitingStatus()
		if !ok {
			return "", -1, fmt.Errorf("stage %s missing from registry", stage)
		}
		if status == e.Status {
			return stage, i, nil
		}
	}
	return "", -1, fmt.Errorf("%w: status %s is not part of the %s chain", apperrors.ErrInvalidTransition, e.Status, e.Category)
}

// NextStatus computes the status following an approval at chain position idx:
// the next stage's awaiting status, or approved when idx is the last stage.
func NextStatus(chain []Stage, idx int) ExeatStatus {
	if idx+1 >= len(chain) {
		return StatusApproved
	}
	status, _ := chain[idx+1].AwaitingStatus()
	return status
}

// ValidateLedger checks the no-gap invariant: every chain stage before the
// furthest decided one must itself carry a record, in chain order.
func (e *ExeatRequest) ValidateLedger(chain []Stage) error {
	lastDecided := -1
	for i, stage := range chain {
		if _, ok := e.Approvals[stage]; ok {
			lastDecided = i
		}
	}
	for i := 0; i <= lastDecided; i++ {
		if _, ok := e.Approvals[chain[i]]; !ok {
			return fmt.Errorf("ledger gap: stage %s undecided while %s holds a record", chain[i], chain[lastDecided])
		}
	}
	return nil
}
