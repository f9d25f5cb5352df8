package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casaflow/casaflow/internal/model"
)

// AppendAudit appends one immutable audit entry. There is no update or
// delete path for audit rows anywhere in this package.
func (s *SQLiteStorage) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAuditEntry(entry); err != nil {
		return err
	}
	return s.appendAuditTx(ctx, s.db, entry)
}

func (s *SQLiteStorage) appendAuditTx(ctx context.Context, q queryable, entry *model.AuditEntry) error {
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (transaction_id, user_id, change_type, old_value, new_value, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TransactionID, entry.UserID, string(entry.ChangeType),
		entry.OldValue, entry.NewValue, entry.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// AuditHistory returns every audit entry for the transaction, newest first.
// Entries remain retrievable after the transaction is soft-deleted.
func (s *SQLiteStorage) AuditHistory(ctx context.Context, transactionID string) ([]model.AuditEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, user_id, change_type, old_value, new_value, changed_at
		FROM audit_log
		WHERE transaction_id = ?
		ORDER BY changed_at DESC, id DESC`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		var changeType string
		var oldValue, newValue sql.NullString
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.UserID,
			&changeType, &oldValue, &newValue, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.ChangeType = model.ChangeType(changeType)
		entry.OldValue = oldValue.String
		entry.NewValue = newValue.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}
	return entries, nil
}
