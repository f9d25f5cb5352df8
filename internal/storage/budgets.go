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

// CreateBudget inserts a new budget for the team.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := budget.Validate(); err != nil {
		return err
	}

	var endDate any
	if budget.EndDate != nil {
		endDate = budget.EndDate.Format(model.DateLayout)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (team_id, category_id, amount, period, start_date, end_date, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.TeamID, budget.CategoryID, budget.Amount, string(budget.Period),
		budget.StartDate.Format(model.DateLayout), endDate, budget.IsActive, now)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get budget ID: %w", err)
	}

	budget.ID = id
	budget.CreatedAt = now

	slog.Info("created budget", "id", id, "category", budget.CategoryID, "team", budget.TeamID)
	return nil
}

// GetBudget returns a budget by id, scoped to the team.
func (s *SQLiteStorage) GetBudget(ctx context.Context, teamID string, id int64) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, category_id, amount, period, start_date, end_date, is_active, created_at
		FROM budgets
		WHERE id = ? AND team_id = ?`, id, teamID)

	budget, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	return budget, nil
}

// ListBudgets returns the team's budgets.
func (s *SQLiteStorage) ListBudgets(ctx context.Context, teamID string, activeOnly bool) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, team_id, category_id, amount, period, start_date, end_date, is_active, created_at
		FROM budgets
		WHERE team_id = ?`
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *budget)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget persists all mutable fields of the budget, scoped to its team.
func (s *SQLiteStorage) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := budget.Validate(); err != nil {
		return err
	}

	var endDate any
	if budget.EndDate != nil {
		endDate = budget.EndDate.Format(model.DateLayout)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount = ?, period = ?, start_date = ?, end_date = ?, is_active = ?
		WHERE id = ? AND team_id = ?`,
		budget.CategoryID, budget.Amount, string(budget.Period),
		budget.StartDate.Format(model.DateLayout), endDate, budget.IsActive,
		budget.ID, budget.TeamID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
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

// DeleteBudget removes a budget, scoped to the team.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, teamID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND team_id = ?`, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	slog.Info("deleted budget", "id", id, "team", teamID)
	return nil
}

func scanBudget(row rowScanner) (*model.Budget, error) {
	var budget model.Budget
	var period string
	var endDate sql.NullTime

	err := row.Scan(
		&budget.ID,
		&budget.TeamID,
		&budget.CategoryID,
		&budget.Amount,
		&period,
		&budget.StartDate,
		&endDate,
		&budget.IsActive,
		&budget.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	budget.Period = model.BudgetPeriod(period)
	if endDate.Valid {
		end := endDate.Time
		budget.EndDate = &end
	}
	return &budget, nil
}
