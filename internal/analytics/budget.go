// Package analytics computes per-budget spending aggregates and status.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/service"
)

// warningThreshold is the percentage of a budget's amount at which its
// status becomes "warning".
const warningThreshold = 80.0

// Analyzer computes budget statuses for a team. Every call recomputes from
// the transaction table; there is no persisted cache, so results are never
// stale.
type Analyzer struct {
	store service.Storage
	now   func() time.Time
}

// NewAnalyzer creates a budget analyzer backed by the given store.
func NewAnalyzer(store service.Storage) *Analyzer {
	return &Analyzer{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the analyzer's clock. Intended for tests.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze computes the status of every active budget of the team. A zero
// month or year selects the current calendar month as reference.
func (a *Analyzer) Analyze(ctx context.Context, teamID string, month time.Month, year int) ([]service.BudgetStatus, error) {
	ref := a.now().UTC()
	if month != 0 && year != 0 {
		ref = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	}

	budgets, err := a.store.ListBudgets(ctx, teamID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	statuses := make([]service.BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		start, end := window(budget, ref)

		spent, err := a.store.SumExpensesByCategory(ctx, teamID, budget.CategoryID, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to sum spend for budget %d: %w", budget.ID, err)
		}

		categoryName := ""
		if category, catErr := a.store.GetCategory(ctx, teamID, budget.CategoryID); catErr == nil {
			categoryName = category.Name
		}

		statuses = append(statuses, service.BudgetStatus{
			Budget:       budget,
			CategoryName: categoryName,
			Spent:        spent,
			Remaining:    budget.Amount - spent,
			Percentage:   percentage(spent, budget.Amount),
			Status:       classify(spent, budget.Amount),
		})
	}

	return statuses, nil
}

// window derives the date range a budget aggregates over. Custom budgets use
// their own [start, end] range, with a nil end leaving the window open.
// Monthly, weekly and biweekly budgets all aggregate over the reference
// calendar month.
func window(budget model.Budget, ref time.Time) (time.Time, *time.Time) {
	if budget.Period == model.PeriodCustom {
		return budget.StartDate, budget.EndDate
	}

	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, &end
}

// percentage returns spend as a percentage of the budget amount, guarding
// the zero-amount case.
func percentage(spent, amount float64) float64 {
	if amount == 0 {
		return 0
	}
	return 100 * spent / amount
}

// classify maps spend to a status level. A budget is over only when spend
// strictly exceeds its amount; spending the amount exactly sits at 100%
// usage and reports a warning.
func classify(spent, amount float64) service.BudgetStatusLevel {
	switch {
	case spent > amount:
		return service.BudgetOver
	case percentage(spent, amount) >= warningThreshold:
		return service.BudgetWarning
	default:
		return service.BudgetGood
	}
}
