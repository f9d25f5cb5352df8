package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
)

// CreateCategory adds a new expense category to the team.
func (e *Engine) CreateCategory(ctx context.Context, teamID, name, icon, color string) (*model.Category, error) {
	category := &model.Category{
		TeamID:    teamID,
		Name:      name,
		Icon:      icon,
		Color:     color,
		IsActive:  true,
		CreatedAt: e.now().UTC(),
	}
	if err := category.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if err := e.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategory returns one category of the team, active or not.
func (e *Engine) GetCategory(ctx context.Context, teamID string, id int64) (*model.Category, error) {
	return e.store.GetCategory(ctx, teamID, id)
}

// ListCategories returns the team's active categories sorted by name.
func (e *Engine) ListCategories(ctx context.Context, teamID string) ([]model.Category, error) {
	return e.store.ListCategories(ctx, teamID)
}

// UpdateCategory renames or restyles an existing category.
func (e *Engine) UpdateCategory(ctx context.Context, teamID string, id int64, name, icon, color string) (*model.Category, error) {
	category, err := e.store.GetCategory(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		category.Name = name
	}
	if icon != "" {
		category.Icon = icon
	}
	if color != "" {
		category.Color = color
	}

	if err := category.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if err := e.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deactivates a category. The category must not be referenced
// by any active transaction; rules and budgets pointing at it keep their
// reference but stop producing effects once it is inactive.
func (e *Engine) DeleteCategory(ctx context.Context, teamID string, id int64) error {
	if _, err := e.store.GetCategory(ctx, teamID, id); err != nil {
		return err
	}

	count, err := e.store.CountActiveByCategory(ctx, teamID, id)
	if err != nil {
		return fmt.Errorf("failed to count category references: %w", err)
	}
	if count > 0 {
		return common.NewConflictError("category %d is referenced by %d transactions", id, count)
	}

	return e.store.DeactivateCategory(ctx, teamID, id)
}

// CreateRule adds a categorization rule for the team. The referenced category
// must exist.
func (e *Engine) CreateRule(ctx context.Context, teamID, name string, field model.RuleField, matchText string, categoryID int64) (*model.Rule, error) {
	rule := &model.Rule{
		TeamID:     teamID,
		Name:       name,
		Field:      field,
		MatchText:  matchText,
		CategoryID: categoryID,
		IsActive:   true,
		CreatedAt:  e.now().UTC(),
	}
	if err := rule.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if _, err := e.store.GetCategory(ctx, teamID, categoryID); err != nil {
		return nil, common.NewDependencyError("category %d does not exist", categoryID)
	}
	if err := e.store.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetRule returns one rule of the team.
func (e *Engine) GetRule(ctx context.Context, teamID string, id int64) (*model.Rule, error) {
	return e.store.GetRule(ctx, teamID, id)
}

// ListRules returns the team's rules in evaluation order.
func (e *Engine) ListRules(ctx context.Context, teamID string, activeOnly bool) ([]model.Rule, error) {
	return e.store.ListRules(ctx, teamID, activeOnly)
}

// RuleUpdate is a partial update of a rule. Nil fields are left unchanged.
type RuleUpdate struct {
	Name       *string
	Field      *model.RuleField
	MatchText  *string
	CategoryID *int64
	IsActive   *bool
}

// UpdateRule applies a partial edit to a rule of the team.
func (e *Engine) UpdateRule(ctx context.Context, teamID string, id int64, update RuleUpdate) (*model.Rule, error) {
	rule, err := e.store.GetRule(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.Field != nil {
		rule.Field = *update.Field
	}
	if update.MatchText != nil {
		rule.MatchText = *update.MatchText
	}
	if update.CategoryID != nil {
		rule.CategoryID = *update.CategoryID
	}
	if update.IsActive != nil {
		rule.IsActive = *update.IsActive
	}

	if err := rule.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if update.CategoryID != nil {
		if _, err := e.store.GetCategory(ctx, teamID, rule.CategoryID); err != nil {
			return nil, common.NewDependencyError("category %d does not exist", rule.CategoryID)
		}
	}
	if err := e.store.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule. Transactions it already categorized keep their
// category; audit entries keep the rule's recorded name.
func (e *Engine) DeleteRule(ctx context.Context, teamID string, id int64) error {
	return e.store.DeleteRule(ctx, teamID, id)
}

// CreateBudget adds a spending cap for one category of the team.
func (e *Engine) CreateBudget(ctx context.Context, teamID string, categoryID int64, amount float64, period model.BudgetPeriod, startDate time.Time, endDate *time.Time) (*model.Budget, error) {
	budget := &model.Budget{
		TeamID:     teamID,
		CategoryID: categoryID,
		Amount:     amount,
		Period:     period,
		StartDate:  startDate,
		EndDate:    endDate,
		IsActive:   true,
		CreatedAt:  e.now().UTC(),
	}
	if err := budget.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if _, err := e.store.GetCategory(ctx, teamID, categoryID); err != nil {
		return nil, common.NewDependencyError("category %d does not exist", categoryID)
	}
	if err := e.store.CreateBudget(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// GetBudget returns one budget of the team.
func (e *Engine) GetBudget(ctx context.Context, teamID string, id int64) (*model.Budget, error) {
	return e.store.GetBudget(ctx, teamID, id)
}

// ListBudgets returns the team's budgets.
func (e *Engine) ListBudgets(ctx context.Context, teamID string, activeOnly bool) ([]model.Budget, error) {
	return e.store.ListBudgets(ctx, teamID, activeOnly)
}

// BudgetUpdate is a partial update of a budget. Nil fields are left
// unchanged; ClearEndDate reopens a custom budget's window.
type BudgetUpdate struct {
	Amount       *float64
	Period       *model.BudgetPeriod
	StartDate    *time.Time
	EndDate      *time.Time
	IsActive     *bool
	ClearEndDate bool
}

// UpdateBudget applies a partial edit to a budget of the team.
func (e *Engine) UpdateBudget(ctx context.Context, teamID string, id int64, update BudgetUpdate) (*model.Budget, error) {
	budget, err := e.store.GetBudget(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	if update.Amount != nil {
		budget.Amount = *update.Amount
	}
	if update.Period != nil {
		budget.Period = *update.Period
	}
	if update.StartDate != nil {
		budget.StartDate = *update.StartDate
	}
	switch {
	case update.ClearEndDate:
		budget.EndDate = nil
	case update.EndDate != nil:
		budget.EndDate = update.EndDate
	}
	if update.IsActive != nil {
		budget.IsActive = *update.IsActive
	}

	if err := budget.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if err := e.store.UpdateBudget(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// DeleteBudget removes a budget of the team.
func (e *Engine) DeleteBudget(ctx context.Context, teamID string, id int64) error {
	return e.store.DeleteBudget(ctx, teamID, id)
}
