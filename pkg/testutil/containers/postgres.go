//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"crpstore/internal/platform/database"
	"crpstore/internal/platform/database/migrate"
)

// PostgresContainer wraps a testcontainers Postgres instance with the crp
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	Pool      *database.Pool
}

// NewPostgresContainer starts a new Postgres container and migrates it up.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("crp_test"),
		postgres.WithUsername("crp"),
		postgres.WithPassword("crp_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	if err := migrate.Run(url, migrate.Up); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	cfg := database.DefaultConfig()
	cfg.URL = url
	pool, err := database.New(ctx, cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	// Shared across suites by the Manager; Ryuk reaps the container on exit.
	return &PostgresContainer{
		Container: container,
		URL:       url,
		Pool:      pool,
	}
}

// DB returns the underlying handle.
func (p *PostgresContainer) DB() *sql.DB {
	return p.Pool.DB()
}

// TruncateTables clears all data from the specified tables.
// Use between tests to ensure isolation without restarting the container.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB().ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateAll clears the crp table.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	return p.TruncateTables(ctx, "crp")
}
