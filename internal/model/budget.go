package model

import (
	"fmt"
	"time"
)

// BudgetPeriod describes the nominal cadence of a budget.
type BudgetPeriod string

// Budget period constants.
const (
	PeriodMonthly  BudgetPeriod = "monthly"
	PeriodWeekly   BudgetPeriod = "weekly"
	PeriodBiweekly BudgetPeriod = "biweekly"
	PeriodCustom   BudgetPeriod = "custom"
)

// Valid reports whether p is a known budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodWeekly, PeriodBiweekly, PeriodCustom:
		return true
	}
	return false
}

// Budget caps the spend of one category over a window derived from its
// period. A custom budget aggregates over [StartDate, EndDate]; a nil
// EndDate leaves the window open-ended.
type Budget struct {
	CreatedAt  time.Time
	StartDate  time.Time
	EndDate    *time.Time
	TeamID     string
	Period     BudgetPeriod
	ID         int64
	CategoryID int64
	Amount     float64
	IsActive   bool
}

// Validate checks that the budget carries everything required to persist it.
func (b *Budget) Validate() error {
	if b.TeamID == "" {
		return fmt.Errorf("%w: missing team ID", ErrInvalidBudget)
	}
	if b.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if b.Amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidBudget)
	}
	if !b.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidBudget, b.Period)
	}
	if b.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrInvalidBudget)
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidBudget)
	}
	return nil
}
