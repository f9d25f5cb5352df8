package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
)

// newInviteCode derives a short shareable code for joining a team.
func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CreateTeam creates a new team with the creator as its owner.
func (e *Engine) CreateTeam(ctx context.Context, name, ownerUserID string) (*model.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, common.NewValidationError(fmt.Errorf("team name is required"))
	}
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, common.NewValidationError(fmt.Errorf("owner user ID is required"))
	}

	now := e.now().UTC()
	team := &model.Team{
		ID:         uuid.NewString(),
		Name:       name,
		InviteCode: newInviteCode(),
		CreatedAt:  now,
	}
	if err := e.store.CreateTeam(ctx, team); err != nil {
		return nil, err
	}

	owner := &model.TeamMember{
		TeamID:   team.ID,
		UserID:   ownerUserID,
		Role:     model.RoleOwner,
		IsActive: true,
		JoinedAt: now,
	}
	if err := e.store.AddMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to add owner: %w", err)
	}

	return team, nil
}

// GetTeam returns a team by id.
func (e *Engine) GetTeam(ctx context.Context, teamID string) (*model.Team, error) {
	return e.store.GetTeam(ctx, teamID)
}

// RenameTeam changes the team's display name and notifies its members.
func (e *Engine) RenameTeam(ctx context.Context, teamID, name string) error {
	if strings.TrimSpace(name) == "" {
		return common.NewValidationError(fmt.Errorf("team name is required"))
	}
	if err := e.store.RenameTeam(ctx, teamID, name); err != nil {
		return err
	}
	e.dispatcher.TeamActivity(ctx, teamID, "Team renamed",
		fmt.Sprintf("The team is now called %q.", name))
	return nil
}

// RegenerateInviteCode replaces the team's invite code, invalidating the old
// one, and returns the new code.
func (e *Engine) RegenerateInviteCode(ctx context.Context, teamID string) (string, error) {
	code := newInviteCode()
	if err := e.store.SetInviteCode(ctx, teamID, code); err != nil {
		return "", err
	}
	e.dispatcher.TeamActivity(ctx, teamID, "Invite code regenerated",
		"The previous invite code no longer works.")
	return code, nil
}

// AddMember adds a user to the team, or reactivates them if they were
// removed before. New members join with the member role unless one is given.
func (e *Engine) AddMember(ctx context.Context, teamID, userID string, role model.MemberRole) error {
	if strings.TrimSpace(userID) == "" {
		return common.NewValidationError(fmt.Errorf("user ID is required"))
	}
	if role == "" {
		role = model.RoleMember
	}
	if role != model.RoleOwner && role != model.RoleMember {
		return common.NewValidationError(fmt.Errorf("unknown role %q", role))
	}
	if _, err := e.store.GetTeam(ctx, teamID); err != nil {
		return err
	}

	member := &model.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		IsActive: true,
		JoinedAt: e.now().UTC(),
	}
	if err := e.store.AddMember(ctx, member); err != nil {
		return err
	}

	e.dispatcher.TeamActivity(ctx, teamID, "Member joined",
		fmt.Sprintf("%s joined the team.", userID))
	return nil
}

// RemoveMember deactivates a team member. Their transactions and audit
// entries remain; they stop receiving notifications.
func (e *Engine) RemoveMember(ctx context.Context, teamID, userID string) error {
	if err := e.store.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}
	e.dispatcher.TeamActivity(ctx, teamID, "Member removed",
		fmt.Sprintf("%s left the team.", userID))
	return nil
}

// ChangeMemberRole switches a member between owner and member.
func (e *Engine) ChangeMemberRole(ctx context.Context, teamID, userID string, role model.MemberRole) error {
	if role != model.RoleOwner && role != model.RoleMember {
		return common.NewValidationError(fmt.Errorf("unknown role %q", role))
	}
	if err := e.store.SetMemberRole(ctx, teamID, userID, role); err != nil {
		return err
	}
	e.dispatcher.TeamActivity(ctx, teamID, "Member role changed",
		fmt.Sprintf("%s is now a team %s.", userID, role))
	return nil
}

// ListMembers returns all members of the team, active and inactive.
func (e *Engine) ListMembers(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	return e.store.GetMembers(ctx, teamID)
}

// ListNotifications returns a member's notifications, newest first.
func (e *Engine) ListNotifications(ctx context.Context, teamID, userID string, unreadOnly bool) ([]model.Notification, error) {
	return e.store.ListNotifications(ctx, teamID, userID, unreadOnly)
}

// MarkNotificationRead marks one notification as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, teamID string, id int64) error {
	return e.store.MarkNotificationRead(ctx, teamID, id)
}
