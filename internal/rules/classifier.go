// Package rules implements the rule engine that classifies transactions into
// categories.
package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/casaflow/casaflow/internal/model"
)

// Classifier evaluates transactions against a team's categorization rules.
//
// Rules are evaluated in the order given, which is the store's insertion
// order: there is no priority field, and the first matching rule wins. A
// rule whose data cannot be interpreted (an amount rule with non-numeric
// match text) never matches and never stops evaluation of later rules.
type Classifier struct{}

// NewClassifier creates a new rule classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// FirstMatch returns the first active rule that matches the transaction, or
// nil when no rule matches.
func (c *Classifier) FirstMatch(txn model.Transaction, activeRules []model.Rule) *model.Rule {
	for i := range activeRules {
		rule := &activeRules[i]
		if !rule.IsActive {
			continue
		}
		if c.matches(txn, rule) {
			return rule
		}
	}
	return nil
}

// matches evaluates one rule against the transaction. Each rule inspects
// exactly one field.
func (c *Classifier) matches(txn model.Transaction, rule *model.Rule) bool {
	switch rule.Field {
	case model.FieldDescription:
		return matchDescription(txn, rule.MatchText)
	case model.FieldAmount:
		return matchAmount(txn, rule.MatchText)
	case model.FieldDate:
		return matchDate(txn, rule.MatchText)
	}
	return false
}

// matchDescription is a case-insensitive substring test.
func matchDescription(txn model.Transaction, matchText string) bool {
	return strings.Contains(
		strings.ToLower(txn.Description),
		strings.ToLower(matchText),
	)
}

// matchAmount compares the transaction's absolute amount against the parsed
// match text. The comparison is exact, with no tolerance. Non-numeric match
// text means the rule never matches.
func matchAmount(txn model.Transaction, matchText string) bool {
	want, err := strconv.ParseFloat(strings.TrimSpace(matchText), 64)
	if err != nil {
		return false
	}
	return math.Abs(txn.Amount) == math.Abs(want)
}

// matchDate is a substring test against the transaction's YYYY-MM-DD date
// string, so a rule can match a year ("2025") or a year-month prefix
// ("2025-03").
func matchDate(txn model.Transaction, matchText string) bool {
	return strings.Contains(txn.Date.Format(model.DateLayout), matchText)
}
