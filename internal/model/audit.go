package model

import (
	"encoding/json"
	"time"
)

// ChangeType classifies a state-changing operation on a transaction.
type ChangeType string

// Change type constants.
const (
	ChangeCreated         ChangeType = "created"
	ChangeUpdated         ChangeType = "updated"
	ChangeDeleted         ChangeType = "deleted"
	ChangeCategoryChanged ChangeType = "category_changed"
)

// AuditEntry is one immutable record of a transaction mutation. Entries are
// append-only and survive the soft delete of the transaction they describe.
// OldValue and NewValue hold full JSON snapshots, not diffs, so any
// intermediate state can be reconstructed without replaying prior entries.
type AuditEntry struct {
	ChangedAt     time.Time
	TransactionID string
	UserID        string
	OldValue      string
	NewValue      string
	ChangeType    ChangeType
	ID            int64
}

// TransactionSnapshot is the structural snapshot stored in audit entries.
type TransactionSnapshot struct {
	Description string             `json:"description"`
	Date        string             `json:"date"`
	Bank        string             `json:"bank,omitempty"`
	Status      TransactionStatus  `json:"status"`
	CategoryID  *int64             `json:"category_id"`
	Amount      float64            `json:"amount"`
	AISuggested bool               `json:"ai_suggested,omitempty"`
	RuleID      *int64             `json:"rule_id,omitempty"`
	RuleName    string             `json:"rule_name,omitempty"`
}

// Snapshot captures the transaction's audited fields at this moment.
func Snapshot(t *Transaction) TransactionSnapshot {
	return TransactionSnapshot{
		Description: t.Description,
		Date:        t.Date.Format(DateLayout),
		Bank:        t.Bank,
		Status:      t.Status,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		AISuggested: t.AISuggested,
	}
}

// Encode serializes the snapshot for storage in an audit entry.
func (s TransactionSnapshot) Encode() string {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DecodeSnapshot parses a snapshot previously produced by Encode.
func DecodeSnapshot(raw string) (TransactionSnapshot, error) {
	var s TransactionSnapshot
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}
