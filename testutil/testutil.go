package testutil

import (
	"context"
	"testing"
	"time"

	"arena/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupTestDatabase starts a throwaway postgres container, runs the
// migrations against it and returns a connected pool. The container and the
// pool are torn down with the test.
func SetupTestDatabase(ctx context.Context, t *testing.T) *database.DB {
	t.Helper()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("arena_test"),
		postgres.WithUsername("arena"),
		postgres.WithPassword("arena"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	require.NoError(t, database.RunMigrationsWithURL(connStr), "failed to run migrations")

	db, err := database.NewConnection(ctx, connStr)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	return db
}
