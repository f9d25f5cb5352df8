// Package testutil provides shared helpers for tests that need a migrated
// in-memory database seeded with a team.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/service"
	"github.com/casaflow/casaflow/internal/storage"
)

// TestDB is an in-memory database with one seeded team, ready for use in
// tests. Cleanup is registered automatically.
type TestDB struct {
	Storage service.Storage
	Team    *model.Team
	t       *testing.T
	UserID  string
}

// SetupTestDB creates a migrated in-memory database and seeds a team with
// one owner member.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	team := &model.Team{
		ID:         uuid.NewString(),
		Name:       "Test Household",
		InviteCode: "testcode",
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.CreateTeam(ctx, team); err != nil {
		t.Fatalf("failed to seed team: %v", err)
	}

	userID := "user-" + uuid.NewString()[:8]
	if err := store.AddMember(ctx, &model.TeamMember{
		TeamID:   team.ID,
		UserID:   userID,
		Role:     model.RoleOwner,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("failed to seed owner: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		Team:    team,
		UserID:  userID,
		t:       t,
	}
}

// SeedCategory creates an active category in the test team and returns it.
func (db *TestDB) SeedCategory(name string) *model.Category {
	db.t.Helper()

	category := &model.Category{
		TeamID:    db.Team.ID,
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Storage.CreateCategory(context.Background(), category); err != nil {
		db.t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return category
}

// SeedMember adds an active member to the test team and returns its user id.
func (db *TestDB) SeedMember() string {
	db.t.Helper()

	userID := "user-" + uuid.NewString()[:8]
	if err := db.Storage.AddMember(context.Background(), &model.TeamMember{
		TeamID:   db.Team.ID,
		UserID:   userID,
		Role:     model.RoleMember,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	}); err != nil {
		db.t.Fatalf("failed to seed member: %v", err)
	}
	return userID
}

// SeedTransaction creates an active transaction in the test team.
func (db *TestDB) SeedTransaction(description string, amount float64, date time.Time, categoryID *int64) *model.Transaction {
	db.t.Helper()

	now := time.Now().UTC()
	txn := &model.Transaction{
		ID:          uuid.NewString(),
		TeamID:      db.Team.ID,
		UserID:      db.UserID,
		Description: description,
		Amount:      amount,
		Date:        date,
		CategoryID:  categoryID,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	txn.Normalize()
	if err := db.Storage.CreateTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to seed transaction %q: %v", description, err)
	}
	return txn
}
