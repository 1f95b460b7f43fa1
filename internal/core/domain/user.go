package domain

import "time"

// User represents an account in the system: a student, a parent/guardian
// contact, or a member of staff holding one of the approver roles.
type User struct {
	UserID       string `json:"userID"` // Primary Key (UUID)
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Used for soft delete
}

// IsStaff reports whether the user's role is one of the staff approver roles.
// The coarse student/staff split governs access to staff-only views; per-stage
// authorization is always checked against the exact stage role.
func (u User) IsStaff() bool {
	switch u.Role {
	case RoleCMD, RoleDeputyDean, RoleDean, RoleHostelAdmin:
		return true
	}
	return false
}
