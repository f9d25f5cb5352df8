package model

import "time"

// MemberRole is the role a user holds inside a team.
type MemberRole string

// Member role constants.
const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Team is the tenancy boundary: a household sharing one financial dataset.
// Teams are never hard-deleted.
type Team struct {
	CreatedAt  time.Time
	ID         string
	Name       string
	InviteCode string
}

// TeamMember links a user to a team with a role. Inactive members are kept
// for history but excluded from notification fan-out.
type TeamMember struct {
	JoinedAt time.Time
	TeamID   string
	UserID   string
	Role     MemberRole
	IsActive bool
}
