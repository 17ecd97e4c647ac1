package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/store"
	"github.com/lox/flip7/internal/store/sqlite/migrations"
	"github.com/lox/flip7/internal/store/storetest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "flip7.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("", zerolog.Nop()); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) store.Store {
		return openTempStore(t)
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flip7.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, applyMigrations(context.Background(), s.db, migrations.FS))
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSaveAppendsOnlyNewEvents(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	e := game.NewEngine(game.WithSaver(s), game.WithSeed(9))
	state, err := e.StartGame([]string{"Alice", "Bob"})
	require.NoError(t, err)
	_, err = e.StartRound()
	require.NoError(t, err)
	four := deck.NumberCard(4)
	_, _, err = e.DealCard(state.Players[1].ID, &four)
	require.NoError(t, err)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM game_events WHERE game_id = ?`, state.ID).Scan(&n))
	assert.Equal(t, 3, n)

	// A log shorter than the one stored would rewrite history.
	err = s.Save(ctx, e.State(), e.Events()[:1])
	assert.ErrorContains(t, err, "refusing")

	var kind string
	require.NoError(t, s.db.QueryRow(
		`SELECT kind FROM game_events WHERE game_id = ? AND seq = 3`, state.ID,
	).Scan(&kind))
	assert.Equal(t, "card_dealt", kind)
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	content := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (x INT);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}
