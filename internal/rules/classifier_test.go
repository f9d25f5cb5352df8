package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/model"
)

func makeTxn(description string, amount float64, date string) model.Transaction {
	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return model.Transaction{
		ID:          "txn-1",
		TeamID:      "team-1",
		UserID:      "user-1",
		Description: description,
		Amount:      amount,
		Date:        parsed,
		Status:      model.StatusActive,
	}
}

func makeRule(id int64, name string, field model.RuleField, matchText string, categoryID int64) model.Rule {
	return model.Rule{
		ID:         id,
		TeamID:     "team-1",
		Name:       name,
		Field:      field,
		MatchText:  matchText,
		CategoryID: categoryID,
		IsActive:   true,
	}
}

func TestFirstMatchOrder(t *testing.T) {
	classifier := NewClassifier()
	txn := makeTxn("WHOLE FOODS MARKET", 82.50, "2026-03-14")

	groceries := makeRule(1, "groceries", model.FieldDescription, "whole foods", 10)
	food := makeRule(2, "food", model.FieldDescription, "foods", 20)

	match := classifier.FirstMatch(txn, []model.Rule{groceries, food})
	require.NotNil(t, match)
	assert.Equal(t, int64(1), match.ID)

	// Reversing the slice reverses the winner: order is everything.
	match = classifier.FirstMatch(txn, []model.Rule{food, groceries})
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFirstMatchSkipsInactive(t *testing.T) {
	classifier := NewClassifier()
	txn := makeTxn("Netflix subscription", 15.99, "2026-03-01")

	inactive := makeRule(1, "streaming", model.FieldDescription, "netflix", 10)
	inactive.IsActive = false
	fallback := makeRule(2, "subscriptions", model.FieldDescription, "subscription", 20)

	match := classifier.FirstMatch(txn, []model.Rule{inactive, fallback})
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFirstMatchNoMatch(t *testing.T) {
	classifier := NewClassifier()
	txn := makeTxn("Hardware store", 42.00, "2026-03-01")

	rule := makeRule(1, "groceries", model.FieldDescription, "grocery", 10)

	assert.Nil(t, classifier.FirstMatch(txn, []model.Rule{rule}))
	assert.Nil(t, classifier.FirstMatch(txn, nil))
}

func TestMatchDescriptionCaseInsensitive(t *testing.T) {
	tests := []struct {
		name        string
		description string
		matchText   string
		want        bool
	}{
		{"exact", "netflix", "netflix", true},
		{"mixed case transaction", "NETFLIX.COM", "netflix", true},
		{"mixed case pattern", "netflix.com", "NetFlix", true},
		{"substring", "PAYPAL *NETFLIX", "netflix", true},
		{"no match", "hulu", "netflix", false},
	}

	classifier := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := makeTxn(tt.description, 10, "2026-01-01")
			rule := makeRule(1, "r", model.FieldDescription, tt.matchText, 1)
			got := classifier.FirstMatch(txn, []model.Rule{rule}) != nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchAmountExact(t *testing.T) {
	tests := []struct {
		name      string
		matchText string
		amount    float64
		want      bool
	}{
		{"exact match", "49.99", 49.99, true},
		{"negative amount matches magnitude", "49.99", -49.99, true},
		{"negative pattern matches magnitude", "-49.99", 49.99, true},
		{"off by a cent", "49.99", 50.00, false},
		{"tiny difference", "49.99", 49.990001, false},
		{"whitespace tolerated", " 49.99 ", 49.99, true},
	}

	classifier := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := makeTxn("anything", tt.amount, "2026-01-01")
			txn.Normalize()
			rule := makeRule(1, "r", model.FieldAmount, tt.matchText, 1)
			got := classifier.FirstMatch(txn, []model.Rule{rule}) != nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchAmountUnparsableNeverMatches(t *testing.T) {
	classifier := NewClassifier()
	txn := makeTxn("anything", 49.99, "2026-01-01")

	broken := makeRule(1, "broken", model.FieldAmount, "about fifty", 10)
	next := makeRule(2, "exact", model.FieldAmount, "49.99", 20)

	// The broken rule is skipped, not fatal: evaluation continues.
	match := classifier.FirstMatch(txn, []model.Rule{broken, next})
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestMatchDateSubstring(t *testing.T) {
	tests := []struct {
		name      string
		matchText string
		date      string
		want      bool
	}{
		{"full date", "2026-03-14", "2026-03-14", true},
		{"year only", "2026", "2026-03-14", true},
		{"year and month", "2026-03", "2026-03-14", true},
		{"day fragment", "-14", "2026-03-14", true},
		{"wrong month", "2026-04", "2026-03-14", false},
	}

	classifier := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := makeTxn("anything", 10, tt.date)
			rule := makeRule(1, "r", model.FieldDate, tt.matchText, 1)
			got := classifier.FirstMatch(txn, []model.Rule{rule}) != nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownFieldNeverMatches(t *testing.T) {
	classifier := NewClassifier()
	txn := makeTxn("anything", 10, "2026-01-01")

	rule := makeRule(1, "r", model.RuleField("memo"), "anything", 1)
	assert.Nil(t, classifier.FirstMatch(txn, []model.Rule{rule}))
}
