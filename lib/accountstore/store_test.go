package accountstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"audiogate-backend/lib/accountstore/db"
	"audiogate-backend/lib/telemetry"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) Store {
	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(db.Schema)
	require.NoError(t, err)

	return NewStore(sqlite)
}

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/accountstore")
	defer cleanup()

	store := setupStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := store.Random(ctx)
	require.ErrorIs(t, err, ErrNoAccounts)

	pool := []Account{
		{Login: "79261234501", Password: "hunter2"},
		{Login: "79261234502", Password: "hunter3"},
	}
	err = store.Seed(ctx, pool)
	require.NoError(t, err)

	accounts, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, pool, accounts)

	// seeding again with a changed password updates in place
	pool[1].Password = "hunter4"
	err = store.Seed(ctx, pool)
	require.NoError(t, err)

	accounts, err = store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, pool, accounts)

	picked, err := store.Random(ctx)
	require.NoError(t, err)
	require.Contains(t, accounts, picked)
}
