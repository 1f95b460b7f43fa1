package mapping

import (
	"github.com/exeat-ng/exeat_backend/internal/core/domain"
	"github.com/exeat-ng/exeat_backend/internal/models"
)

// ToModelExeat converts a domain exeat request to its row shape. Approvals
// live in their own table and are mapped separately.
func ToModelExeat(d domain.ExeatRequest) models.Exeat {
	return models.Exeat{
		ExeatID:       d.ExeatID,
		StudentID:     d.StudentID,
		Category:      string(d.Category),
		Reason:        d.Reason,
		Location:      d.Location,
		DepartureDate: d.DepartureDate,
		ReturnDate:    d.ReturnDate,
		Status:        string(d.Status),
		QRCode:        d.QRCode,
		SubmittedAt:   d.SubmittedAt,
		ApprovedAt:    d.ApprovedAt,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExeat converts an exeat row plus its ledger rows to the domain
// aggregate.
func ToDomainExeat(m models.Exeat, approvals []models.ExeatApproval) domain.ExeatRequest {
	ledger := make(map[domain.Stage]domain.ApprovalRecord, len(approvals))
	for _, a := range approvals {
		record := domain.ApprovalRecord{
			Approved:  a.Approved,
			DecidedBy: a.DecidedBy,
			DecidedAt: a.DecidedAt,
		}
		if a.Method != nil {
			record.Method = domain.DecisionMethod(*a.Method)
		}
		if a.Comment != nil {
			record.Comment = *a.Comment
		}
		ledger[domain.Stage(a.Stage)] = record
	}
	return domain.ExeatRequest{
		ExeatID:       m.ExeatID,
		StudentID:     m.StudentID,
		Category:      domain.Category(m.Category),
		Reason:        m.Reason,
		Location:      m.Location,
		DepartureDate: m.DepartureDate,
		ReturnDate:    m.ReturnDate,
		Status:        domain.ExeatStatus(m.Status),
		Approvals:     ledger,
		QRCode:        m.QRCode,
		SubmittedAt:   m.SubmittedAt,
		ApprovedAt:    m.ApprovedAt,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelApproval converts one ledger record to its row shape.
func ToModelApproval(exeatID string, stage domain.Stage, record domain.ApprovalRecord) models.ExeatApproval {
	row := models.ExeatApproval{
		ExeatID:   exeatID,
		Stage:     string(stage),
		Approved:  record.Approved,
		DecidedBy: record.DecidedBy,
		DecidedAt: record.DecidedAt,
	}
	if record.Method != "" {
		method := string(record.Method)
		row.Method = &method
	}
	if record.Comment != "" {
		comment := record.Comment
		row.Comment = &comment
	}
	return row
}
