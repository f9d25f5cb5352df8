package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/casaflow/casaflow/internal/alerts"
	"github.com/casaflow/casaflow/internal/analytics"
	"github.com/casaflow/casaflow/internal/config"
	"github.com/casaflow/casaflow/internal/engine"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/rules"
	"github.com/casaflow/casaflow/internal/service"
	"github.com/casaflow/casaflow/internal/storage"
)

// initStorage opens the configured database and brings the schema current.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine wires the full engine on top of an opened store.
func initEngine(store service.Storage) *engine.Engine {
	analyzer := analytics.NewAnalyzer(store)
	dispatcher := alerts.NewDispatcher(store, analyzer)
	return engine.New(store, rules.NewClassifier(), analyzer, dispatcher)
}

// requireTeam returns the configured team ID or an error telling the user
// how to set it.
func requireTeam() (string, error) {
	teamID := viper.GetString("team.id")
	if teamID == "" {
		return "", fmt.Errorf("no team configured: set team.id in config or pass --team")
	}
	return teamID, nil
}

// requireUser returns the configured user ID or an error telling the user
// how to set it.
func requireUser() (string, error) {
	userID := viper.GetString("user.id")
	if userID == "" {
		return "", fmt.Errorf("no user configured: set user.id in config or pass --user")
	}
	return userID, nil
}

// requireTeamAndUser resolves both identity settings at once.
func requireTeamAndUser() (teamID, userID string, err error) {
	if teamID, err = requireTeam(); err != nil {
		return "", "", err
	}
	if userID, err = requireUser(); err != nil {
		return "", "", err
	}
	return teamID, userID, nil
}

// parseDate parses a YYYY-MM-DD argument.
func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return date, nil
}

// parseID parses a numeric id argument.
func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", value)
	}
	return id, nil
}
