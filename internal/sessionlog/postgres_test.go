package sessionlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test skipped in -short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := OpenPostgres(ctx, connString)
	require.NoError(t, err)
	defer store.Close()

	t.Run("Save", func(t *testing.T) {
		assert.NoError(t, store.Save(ctx, sampleRecord(2)))
		assert.NoError(t, store.Save(ctx, sampleRecord(1)))
	})

	t.Run("History", func(t *testing.T) {
		history, err := store.History(ctx, "ROOM1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 1, history[0].RoundNumber)
		assert.Equal(t, []string{"p2", "p3"}, history[0].GuessedIDs)
		assert.True(t, history[0].EndedAt.Equal(sampleRecord(1).EndedAt))
	})

	t.Run("Migrations are idempotent", func(t *testing.T) {
		again, err := OpenPostgres(ctx, connString)
		require.NoError(t, err)
		again.Close()
	})
}
