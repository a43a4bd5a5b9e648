package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spotsnack/backend/internal/users"
)

// GetTestDatabasePool creates a database connection pool for testing
func GetTestDatabasePool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// TestDatabase provides database utilities for testing
type TestDatabase struct {
	Pool  *pgxpool.Pool
	Store *users.PostgresStore
}

// NewTestDatabase connects to TEST_DATABASE_URL and ensures the users table.
// The test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := GetTestDatabasePool(ctx, databaseURL)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	store := users.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	db := &TestDatabase{Pool: pool, Store: store}
	t.Cleanup(db.Close)
	return db
}

// Close closes the database connection
func (db *TestDatabase) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// DeleteUser removes a user created by a test
func (db *TestDatabase) DeleteUser(t *testing.T, email string) {
	_, err := db.Pool.Exec(context.Background(), "DELETE FROM users WHERE email = $1", users.NormalizeEmail(email))
	if err != nil {
		t.Logf("Warning: Failed to delete user %s: %v", email, err)
	}
}
