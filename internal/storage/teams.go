package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
)

// CreateTeam inserts a new team.
func (s *SQLiteStorage) CreateTeam(ctx context.Context, team *model.Team) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(team.ID, "team.ID"); err != nil {
		return err
	}
	if err := validateString(team.Name, "team.Name"); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, invite_code, created_at)
		VALUES (?, ?, ?, ?)`,
		team.ID, team.Name, team.InviteCode, now)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	team.CreatedAt = now
	slog.Info("created team", "id", team.ID, "name", team.Name)
	return nil
}

// GetTeam returns a team by id.
func (s *SQLiteStorage) GetTeam(ctx context.Context, teamID string) (*model.Team, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	var team model.Team
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, invite_code, created_at
		FROM teams
		WHERE id = ?`, teamID).Scan(&team.ID, &team.Name, &team.InviteCode, &team.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	return &team, nil
}

// RenameTeam updates the team's name.
func (s *SQLiteStorage) RenameTeam(ctx context.Context, teamID, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE teams SET name = ? WHERE id = ?`, name, teamID)
	if err != nil {
		return fmt.Errorf("failed to rename team: %w", err)
	}
	return requireAffected(result)
}

// SetInviteCode replaces the team's invite code.
func (s *SQLiteStorage) SetInviteCode(ctx context.Context, teamID, code string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE teams SET invite_code = ? WHERE id = ?`, code, teamID)
	if err != nil {
		return fmt.Errorf("failed to set invite code: %w", err)
	}
	return requireAffected(result)
}

// AddMember adds a user to a team, reactivating a previously removed member.
func (s *SQLiteStorage) AddMember(ctx context.Context, member *model.TeamMember) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(member.TeamID); err != nil {
		return err
	}
	if err := validateString(member.UserID, "member.UserID"); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, role, is_active, joined_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(team_id, user_id) DO UPDATE SET is_active = 1, role = excluded.role`,
		member.TeamID, member.UserID, string(member.Role), now)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	member.IsActive = true
	member.JoinedAt = now
	return nil
}

// RemoveMember deactivates a team member.
func (s *SQLiteStorage) RemoveMember(ctx context.Context, teamID, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE team_members SET is_active = 0
		WHERE team_id = ? AND user_id = ? AND is_active = 1`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return requireAffected(result)
}

// SetMemberRole updates an active member's role.
func (s *SQLiteStorage) SetMemberRole(ctx context.Context, teamID, userID string, role model.MemberRole) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE team_members SET role = ?
		WHERE team_id = ? AND user_id = ? AND is_active = 1`,
		string(role), teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to set member role: %w", err)
	}
	return requireAffected(result)
}

// GetMembers returns all members of the team, active and inactive.
func (s *SQLiteStorage) GetMembers(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, user_id, role, is_active, joined_at
		FROM team_members
		WHERE team_id = ?
		ORDER BY joined_at ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []model.TeamMember
	for rows.Next() {
		var member model.TeamMember
		var role string
		if err := rows.Scan(&member.TeamID, &member.UserID, &role, &member.IsActive, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.Role = model.MemberRole(role)
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
