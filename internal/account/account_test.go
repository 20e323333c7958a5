package account

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(":memory:", 500)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	out := map[string]Store{
		"memory": NewMemory(500),
		"sqlite": sqlite,
	}

	if dsn := os.Getenv("HOLDEM_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := NewPostgres(dsn, 500)
		require.NoError(t, err)
		_, err = pg.db.Exec(`DELETE FROM profiles`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestLoadCreatesProfile(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := s.Load(ctx, "alice", "Alice")
			require.NoError(t, err)
			assert.Equal(t, Profile{ID: "alice", Nickname: "Alice", Chips: 500}, p)

			// a blank nickname keeps the stored one
			p, err = s.Load(ctx, "alice", "")
			require.NoError(t, err)
			assert.Equal(t, "Alice", p.Nickname)

			_, err = s.Load(ctx, " ", "x")
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestSettleUpdatesChipsAndStats(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Load(ctx, "bob", "Bob")
			require.NoError(t, err)

			require.NoError(t, s.Settle(ctx, "bob", 620, true))
			require.NoError(t, s.Settle(ctx, "bob", 580, false))

			p, err := s.Load(ctx, "bob", "Bob")
			require.NoError(t, err)
			assert.Equal(t, 580, p.Chips)
			assert.Equal(t, Stats{HandsPlayed: 2, HandsWon: 1}, p.Stats)

			assert.ErrorIs(t, s.Settle(ctx, "nobody", 1, false), ErrNotFound)
		})
	}
}

func TestLoadRefillsBustedProfile(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Load(ctx, "carol", "Carol")
			require.NoError(t, err)
			require.NoError(t, s.Settle(ctx, "carol", 0, false))

			p, err := s.Load(ctx, "carol", "Carol")
			require.NoError(t, err)
			assert.Equal(t, 500, p.Chips)
			assert.Equal(t, 1, p.Stats.HandsPlayed)
		})
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profiles.db")
	ctx := context.Background()

	s, err := NewSQLite(path, 1000)
	require.NoError(t, err)
	_, err = s.Load(ctx, "dave", "Dave")
	require.NoError(t, err)
	require.NoError(t, s.Settle(ctx, "dave", 1234, true))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path, 1000)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Load(ctx, "dave", "")
	require.NoError(t, err)
	assert.Equal(t, 1234, p.Chips)
	assert.Equal(t, "Dave", p.Nickname)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(Config{Driver: "mongo"})
	assert.Error(t, err)
}

func TestBindPlaceholders(t *testing.T) {
	pg := &SQLStore{dialect: DriverPostgres}
	lite := &SQLStore{dialect: DriverSQLite}

	q := `UPDATE profiles SET chips = ? WHERE id = ?`
	assert.Equal(t, `UPDATE profiles SET chips = $1 WHERE id = $2`, pg.bind(q))
	assert.Equal(t, q, lite.bind(q))
}
