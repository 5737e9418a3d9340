package testutil

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	storedb "github.com/modaline/storefront/internal/db"
)

// StartPostgres launches a temporary Postgres container, applies the
// migrations, and returns a database handle. The container is torn down with
// the test.
func StartPostgres(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront_user"),
		postgres.WithPassword("storefront_pass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	if err := storedb.RunMigrations(dsn, logger); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	database, err := storedb.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	return database
}
