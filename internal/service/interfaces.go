// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/casaflow/casaflow/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// An empty Status filters for active transactions. StartDate and EndDate are
// inclusive on both ends. A PageSize of zero disables pagination.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *int64
	Search     string
	Bank       string
	Status     model.TransactionStatus
	Page       int
	PageSize   int
}

// BudgetStatusLevel classifies how far a budget's spend has progressed.
type BudgetStatusLevel string

// Budget status constants.
const (
	BudgetGood    BudgetStatusLevel = "good"
	BudgetWarning BudgetStatusLevel = "warning"
	BudgetOver    BudgetStatusLevel = "over"
)

// BudgetStatus is the computed state of one active budget over its window.
type BudgetStatus struct {
	CategoryName string
	Status       BudgetStatusLevel
	Budget       model.Budget
	Spent        float64
	Remaining    float64
	Percentage   float64
}

// RuleMatch describes one transaction recategorized by a batch rule run.
type RuleMatch struct {
	TransactionID string
	Description   string
	RuleName      string
	OldCategoryID *int64
	RuleID        int64
	NewCategoryID int64
}

// RuleApplicationResult summarizes a batch rule-application run.
type RuleApplicationResult struct {
	Details          []RuleMatch
	CategorizedCount int
	TotalProcessed   int
}

// Storage defines the contract for the persistence layer. Every read and
// write below that touches team-owned data takes the team id as a mandatory
// filter; an id that exists under another team behaves as if it did not
// exist.
type Storage interface {
	// Team operations
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeam(ctx context.Context, teamID string) (*model.Team, error)
	RenameTeam(ctx context.Context, teamID, name string) error
	SetInviteCode(ctx context.Context, teamID, code string) error
	AddMember(ctx context.Context, member *model.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	SetMemberRole(ctx context.Context, teamID, userID string, role model.MemberRole) error
	GetMembers(ctx context.Context, teamID string) ([]model.TeamMember, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, teamID, id string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	MarkTransactionDeleted(ctx context.Context, teamID, id string) error
	ListTransactions(ctx context.Context, teamID string, filter TransactionFilter) ([]model.Transaction, error)
	RecentTransactions(ctx context.Context, teamID string, since time.Time, limit int) ([]model.Transaction, error)
	SumExpensesByCategory(ctx context.Context, teamID string, categoryID int64, start time.Time, end *time.Time) (float64, error)
	CountActiveByCategory(ctx context.Context, teamID string, categoryID int64) (int, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, teamID string, id int64) (*model.Category, error)
	ListCategories(ctx context.Context, teamID string) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeactivateCategory(ctx context.Context, teamID string, id int64) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, teamID string, id int64) (*model.Rule, error)
	ListRules(ctx context.Context, teamID string, activeOnly bool) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, teamID string, id int64) error

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, teamID string, id int64) (*model.Budget, error)
	ListBudgets(ctx context.Context, teamID string, activeOnly bool) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, teamID string, id int64) error

	// Audit operations
	AppendAudit(ctx context.Context, entry *model.AuditEntry) error
	AuditHistory(ctx context.Context, transactionID string) ([]model.AuditEntry, error)

	// Notification operations
	CreateNotification(ctx context.Context, notification *model.Notification) error
	ListNotifications(ctx context.Context, teamID, userID string, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, teamID string, id int64) error
	HasRecentAlert(ctx context.Context, teamID, titleSubstring string, since time.Time) (bool, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a database transaction covering the transaction-write path, so a
// ledger write and its audit entry commit or roll back as one unit.
type Tx interface {
	Commit() error
	Rollback() error

	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, teamID, id string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	MarkTransactionDeleted(ctx context.Context, teamID, id string) error
	AppendAudit(ctx context.Context, entry *model.AuditEntry) error
}
