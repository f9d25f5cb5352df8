// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for transaction and budget dates.
// Transactions carry no time component.
const DateLayout = "2006-01-02"

// TransactionStatus indicates the lifecycle state of a transaction.
type TransactionStatus string

// Transaction status constants.
const (
	StatusActive  TransactionStatus = "active"
	StatusPending TransactionStatus = "pending"
	StatusDeleted TransactionStatus = "deleted"
)

// Valid reports whether s is a known transaction status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusDeleted:
		return true
	}
	return false
}

// Transaction represents a single expense recorded by a team member.
// Amount is always the positive magnitude of the expense.
type Transaction struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Date        time.Time
	ID          string
	TeamID      string
	UserID      string
	Description string
	Bank        string
	Status      TransactionStatus
	CategoryID  *int64
	Amount      float64
	AISuggested bool
}

// Normalize clamps the amount to its positive magnitude and strips the time
// component from the date.
func (t *Transaction) Normalize() {
	t.Amount = math.Abs(t.Amount)
	t.Date = time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks that the transaction carries everything required to persist it.
func (t *Transaction) Validate() error {
	if t.TeamID == "" {
		return fmt.Errorf("%w: missing team ID", ErrInvalidTransaction)
	}
	if t.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, t.Status)
	}
	return nil
}
