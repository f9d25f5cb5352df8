// Package storage provides the data persistence layer for casaflow.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casaflow/casaflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidAudit = errors.New("invalid audit entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTeamID ensures the mandatory team scope is present. Every
// team-owned query passes through this guard so a missed filter fails loudly
// instead of leaking cross-tenant rows.
func validateTeamID(teamID string) error {
	return validateString(teamID, "teamID")
}

// validateAuditEntry validates an audit entry before append.
func validateAuditEntry(entry *model.AuditEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidAudit)
	}
	if entry.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidAudit)
	}
	switch entry.ChangeType {
	case model.ChangeCreated, model.ChangeUpdated, model.ChangeDeleted, model.ChangeCategoryChanged:
	default:
		return fmt.Errorf("%w: unknown change type %q", ErrInvalidAudit, entry.ChangeType)
	}
	return nil
}
