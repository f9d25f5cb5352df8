package model

import "errors"

// Model validation errors.
var (
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidRule         = errors.New("invalid rule")
	ErrInvalidBudget       = errors.New("invalid budget")
	ErrInvalidNotification = errors.New("invalid notification")
)
