package dto

import (
	"time"

	"github.com/exeat-ng/exeat_backend/internal/core/domain"
)

// CreateExeatRequest defines the payload for creating a draft exeat request.
type CreateExeatRequest struct {
	Category      string    `json:"category" binding:"required"`
	Reason        string    `json:"reason" binding:"required"`
	Location      string    `json:"location" binding:"required"`
	DepartureDate time.Time `json:"departureDate" binding:"required"`
	ReturnDate    time.Time `json:"returnDate" binding:"required,gtfield=DepartureDate"`
}

// SubmitDecisionRequest defines the payload for an approver's decision on the
// current stage of a request.
type SubmitDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Method   string `json:"method" binding:"omitempty,oneof=in_person phone"`
	Comment  string `json:"comment"`
}

// ApprovalRecordResponse is one ledger entry in an exeat response.
type ApprovalRecordResponse struct {
	Stage     string    `json:"stage"`
	Approved  bool      `json:"approved"`
	DecidedBy string    `json:"decidedBy"`
	DecidedAt time.Time `json:"decidedAt"`
	Method    string    `json:"method,omitempty"`
	Comment   string    `json:"comment,omitempty"`
}

// ExeatResponse is the API representation of an exeat request.
type ExeatResponse struct {
	ExeatID       string                   `json:"exeatID"`
	StudentID     string                   `json:"studentID"`
	Category      string                   `json:"category"`
	Reason        string                   `json:"reason"`
	Location      string                   `json:"location"`
	DepartureDate time.Time                `json:"departureDate"`
	ReturnDate    time.Time                `json:"returnDate"`
	Status        string                   `json:"status"`
	Chain         []string                 `json:"chain"`
	Approvals     []ApprovalRecordResponse `json:"approvals"`
	QRCode        *string                  `json:"qrCode,omitempty"`
	SubmittedAt   time.Time                `json:"submittedAt"`
	ApprovedAt    *time.Time               `json:"approvedAt,omitempty"`
}

// ToExeatResponse converts a domain request plus its resolved chain to the
// API shape. Ledger entries are emitted in chain order.
func ToExeatResponse(exeat *domain.ExeatRequest, chain []domain.Stage) ExeatResponse {
	chainOut := make([]string, len(chain))
	approvals := make([]ApprovalRecordResponse, 0, len(exeat.Approvals))
	for i, stage := range chain {
		chainOut[i] = string(stage)
		if record, ok := exeat.Approvals[stage]; ok {
			approvals = append(approvals, ApprovalRecordResponse{
				Stage:     string(stage),
				Approved:  record.Approved,
				DecidedBy: record.DecidedBy,
				DecidedAt: record.DecidedAt,
				Method:    string(record.Method),
				Comment:   record.Comment,
			})
		}
	}
	return ExeatResponse{
		ExeatID:       exeat.ExeatID,
		StudentID:     exeat.StudentID,
		Category:      string(exeat.Category),
		Reason:        exeat.Reason,
		Location:      exeat.Location,
		DepartureDate: exeat.DepartureDate,
		ReturnDate:    exeat.ReturnDate,
		Status:        string(exeat.Status),
		Chain:         chainOut,
		Approvals:     approvals,
		QRCode:        exeat.QRCode,
		SubmittedAt:   exeat.SubmittedAt,
		ApprovedAt:    exeat.ApprovedAt,
	}
}

// ListExeatsParams defines query parameters for listing exeat requests.
type ListExeatsParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListExeatsResponse wraps a page of exeat requests.
type ListExeatsResponse struct {
	Exeats    []ExeatResponse `json:"exeats"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// VerificationResponse is returned to gate security after validating a QR
// token. Valid is false when the token parses but the request is no longer
// an approved, current exeat.
type VerificationResponse struct {
	Valid       bool       `json:"valid"`
	ExeatID     string     `json:"exeatID"`
	StudentID   string     `json:"studentID,omitempty"`
	StudentName string     `json:"studentName,omitempty"`
	Category    string     `json:"category,omitempty"`
	Location    string     `json:"location,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ReturnDate  *time.Time `json:"returnDate,omitempty"`
	Reason      string     `json:"reason,omitempty"` // populated with the rejection reason when invalid
}
