//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/raushankrgupta/fitting-room/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("fitly"),
		postgres.WithUsername("fitly"),
		postgres.WithPassword("fitly"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestPostgresGallery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	s, err := store.OpenPostgres(setupPostgres(t, ctx))
	require.NoError(t, err)
	defer s.Close(ctx)

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := tryOn("u1", base, false)
	second := tryOn("u1", base.Add(time.Minute), false)
	require.NoError(t, s.InsertTryOn(ctx, first))
	require.NoError(t, s.InsertTryOn(ctx, second))

	require.ErrorIs(t, s.SoftDeleteTryOn(ctx, "u2", first.ID), store.ErrNotFound)
	require.NoError(t, s.SoftDeleteTryOn(ctx, "u1", second.ID))

	items, err := s.ListTryOns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
}
