package models

import (
	"time"
)

// Exeat is the database row shape for an exeat request.
type Exeat struct {
	ExeatID       string     `db:"exeat_id"`
	StudentID     string     `db:"student_id"`
	Category      string     `db:"category"`
	Reason        string     `db:"reason"`
	Location      string     `db:"location"`
	DepartureDate time.Time  `db:"departure_date"`
	ReturnDate    time.Time  `db:"return_date"`
	Status        string     `db:"status"`
	QRCode        *string    `db:"qr_code"`
	SubmittedAt   time.Time  `db:"submitted_at"`
	ApprovedAt    *time.Time `db:"approved_at"`
	AuditFields
}

// ExeatApproval is the database row shape for one ledger entry. Rows are
// insert-only; UNIQUE (exeat_id, stage) backs the duplicate-decision check.
type ExeatApproval struct {
	ExeatID   string    `db:"exeat_id"`
	Stage     string    `db:"stage"`
	Approved  bool      `db:"approved"`
	DecidedBy string    `db:"decided_by"`
	DecidedAt time.Time `db:"decided_at"`
	Method    *string   `db:"method"`
	Comment   *string   `db:"comment"`
}
