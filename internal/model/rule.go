package model

import (
	"fmt"
	"strings"
	"time"
)

// RuleField identifies which transaction field a categorization rule inspects.
// It is a closed set: adding a field means adding a constant here and an
// evaluator in the rules package.
type RuleField string

// Rule field constants.
const (
	FieldDescription RuleField = "description"
	FieldAmount      RuleField = "amount"
	FieldDate        RuleField = "date"
)

// Valid reports whether f is a known rule field.
func (f RuleField) Valid() bool {
	switch f {
	case FieldDescription, FieldAmount, FieldDate:
		return true
	}
	return false
}

// Rule maps a single-field pattern match to a category. Rules carry no
// priority; evaluation order is the store's insertion order and the first
// matching rule wins.
type Rule struct {
	CreatedAt  time.Time
	TeamID     string
	Name       string
	MatchText  string
	Field      RuleField
	ID         int64
	CategoryID int64
	IsActive   bool
}

// Validate checks that the rule carries everything required to persist it.
func (r *Rule) Validate() error {
	if r.TeamID == "" {
		return fmt.Errorf("%w: missing team ID", ErrInvalidRule)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if strings.TrimSpace(r.MatchText) == "" {
		return fmt.Errorf("%w: missing match text", ErrInvalidRule)
	}
	if !r.Field.Valid() {
		return fmt.Errorf("%w: unknown field %q", ErrInvalidRule, r.Field)
	}
	if r.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	return nil
}
