package model

import (
	"fmt"
	"strings"
	"time"
)

// Category represents an expense category owned by a team.
// Categories are soft-deleted (IsActive=false) because transactions, rules
// and budgets reference them by id.
type Category struct {
	CreatedAt time.Time
	TeamID    string
	Name      string
	Icon      string
	Color     string
	ID        int64
	IsActive  bool
}

// Validate checks that the category carries everything required to persist it.
func (c *Category) Validate() error {
	if c.TeamID == "" {
		return fmt.Errorf("%w: missing team ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	return nil
}
