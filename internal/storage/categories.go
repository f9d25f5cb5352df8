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

// CreateCategory inserts a new category for the team.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := category.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (team_id, name, icon, color, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		category.TeamID, category.Name, category.Icon, category.Color, now)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}

	category.ID = id
	category.IsActive = true
	category.CreatedAt = now

	slog.Info("created category", "id", id, "name", category.Name, "team", category.TeamID)
	return nil
}

// GetCategory returns a category by id, scoped to the team. Inactive
// categories are still returned so historical transactions and budgets can
// resolve their names.
func (s *SQLiteStorage) GetCategory(ctx context.Context, teamID string, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	var cat model.Category
	var icon, color sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, icon, color, is_active, created_at
		FROM categories
		WHERE id = ? AND team_id = ?`, id, teamID).Scan(
		&cat.ID, &cat.TeamID, &cat.Name, &icon, &color, &cat.IsActive, &cat.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	cat.Icon = icon.String
	cat.Color = color.String
	return &cat, nil
}

// ListCategories returns the team's active categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context, teamID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, name, icon, color, is_active, created_at
		FROM categories
		WHERE team_id = ? AND is_active = 1
		ORDER BY name`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var icon, color sql.NullString
		if err := rows.Scan(&cat.ID, &cat.TeamID, &cat.Name, &icon, &color, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Icon = icon.String
		cat.Color = color.String
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory persists the category's name, icon and color, scoped to its
// team.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := category.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, icon = ?, color = ?
		WHERE id = ? AND team_id = ? AND is_active = 1`,
		category.Name, category.Icon, category.Color, category.ID, category.TeamID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
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

// DeactivateCategory soft-deletes a category. The caller is responsible for
// checking that no active transaction still references it.
func (s *SQLiteStorage) DeactivateCategory(ctx context.Context, teamID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET is_active = 0
		WHERE id = ? AND team_id = ? AND is_active = 1`, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	slog.Info("deactivated category", "id", id, "team", teamID)
	return nil
}
