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

// CreateRule inserts a new categorization rule for the team.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (team_id, name, field, match_text, category_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.TeamID, rule.Name, string(rule.Field), rule.MatchText, rule.CategoryID, rule.IsActive, now)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = id
	rule.CreatedAt = now

	slog.Info("created rule", "id", id, "name", rule.Name, "team", rule.TeamID)
	return nil
}

// GetRule returns a rule by id, scoped to the team.
func (s *SQLiteStorage) GetRule(ctx context.Context, teamID string, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	var rule model.Rule
	var field string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, field, match_text, category_id, is_active, created_at
		FROM rules
		WHERE id = ? AND team_id = ?`, id, teamID).Scan(
		&rule.ID, &rule.TeamID, &rule.Name, &field, &rule.MatchText,
		&rule.CategoryID, &rule.IsActive, &rule.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}

	rule.Field = model.RuleField(field)
	return &rule, nil
}

// ListRules returns the team's rules in insertion order. That order is the
// rule engine's evaluation order: the first matching rule wins.
func (s *SQLiteStorage) ListRules(ctx context.Context, teamID string, activeOnly bool) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, team_id, name, field, match_text, category_id, is_active, created_at
		FROM rules
		WHERE team_id = ?`
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var rule model.Rule
		var field string
		if err := rows.Scan(&rule.ID, &rule.TeamID, &rule.Name, &field, &rule.MatchText,
			&rule.CategoryID, &rule.IsActive, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Field = model.RuleField(field)
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// UpdateRule persists all mutable fields of the rule, scoped to its team.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules
		SET name = ?, field = ?, match_text = ?, category_id = ?, is_active = ?
		WHERE id = ? AND team_id = ?`,
		rule.Name, string(rule.Field), rule.MatchText, rule.CategoryID, rule.IsActive,
		rule.ID, rule.TeamID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteRule removes a rule, scoped to the team. Nothing references rules by
// id, so this is a hard delete.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, teamID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM rules WHERE id = ? AND team_id = ?`, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	slog.Info("deleted rule", "id", id, "team", teamID)
	return nil
}
