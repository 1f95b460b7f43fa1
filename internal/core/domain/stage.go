package domain

// Stage identifies one step in an exeat approval chain. Each stage is owned
// by exactly one approver role. The set of stages is closed; chains are
// ordered subsets of it.
type Stage string

const (
	StageCMD           Stage = "cmd"           // campus medical director recommendation
	StageDeputyDean    Stage = "deputyDean"    // deputy dean of students recommendation
	StageParentConsent Stage = "parentConsent" // parent/guardian consent
	StageDean          Stage = "dean"          // dean of students approval
	StageHostelAdmin   Stage = "hostelAdmin"   // hostel admin sign-out clearance
)

// Role identifies an actor category. Staff sub-roles map one-to-one onto the
// stages they own; RoleStudent and RoleParent cover the remaining actors.
type Role string

const (
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
	RoleCMD         Role = "cmd"
	RoleDeputyDean  Role = "deputyDean"
	RoleDean        Role = "dean"
	RoleHostelAdmin Role = "hostelAdmin"
)

// stageRoles maps each stage to the single role allowed to decide it.
// Kept as an explicit table so policy changes stay auditable.
var stageRoles = map[Stage]Role{
	StageCMD:           RoleCMD,
	StageDeputyDean:    RoleDeputyDean,
	StageParentConsent: RoleParent,
	StageDean:          RoleDean,
	StageHostelAdmin:   RoleHostelAdmin,
}

// stageStatuses maps each stage to the request status meaning "awaiting a
// decision at this stage".
var stageStatuses = map[Stage]ExeatStatus{
	StageCMD:           StatusRecommendation1,
	StageDeputyDean:    StatusRecommendation2,
	StageParentConsent: StatusParentConsent,
	StageDean:          StatusDeanApproval,
	StageHostelAdmin:   StatusHostelApproval,
}

// RequiredRole returns the role that owns the given stage.
func (s Stage) RequiredRole() (Role, bool) {
	role, ok := stageRoles[s]
	return role, ok
}

// AwaitingStatus returns the request status that marks the given stage as the
// one currently awaiting a decision.
func (s Stage) AwaitingStatus() (ExeatStatus, bool) {
	status, ok := stageStatuses[s]
	return status, ok
}

// StageForRole returns the stage owned by the given role, if any. Students
// own no stage; every approver role owns exactly one.
func StageForRole(role Role) (Stage, bool) {
	for stage, r := range stageRoles {
		if r == role {
			return stage, true
		}
	}
	return "", false
}

// IsKnown reports whether s belongs to the fixed stage registry.
func (s Stage) IsKnown() bool {
	_, ok := stageRoles[s]
	return ok
}
