package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/config"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/store/filestore"
)

// testGlobals points the CLI at a config file whose storage lives in a
// temporary directory.
func testGlobals(t *testing.T) (*Globals, string) {
	t.Helper()
	dir := t.TempDir()
	games := filepath.Join(dir, "games")
	cfg := fmt.Sprintf(`
storage {
  driver = "file"
  path   = %q
}

log {
  level = "error"
}

player "low" {
  strategy = "threshold"
  target   = 15
}

player "high" {
  strategy = "threshold"
  target   = 30
}
`, games)
	path := filepath.Join(dir, "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &Globals{Config: path}, games
}

func onlyGame(t *testing.T, dir string) string {
	t.Helper()
	s, err := filestore.New(dir, zerolog.Nop())
	require.NoError(t, err)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0].ID
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	err := describe(gameerr.New(gameerr.CodePlayerNotActive, "Alice has already stayed"))
	assert.EqualError(t, err, "validation/player_not_active: Alice has already stayed")
	assert.ErrorIs(t, err, gameerr.ErrPlayerNotActive)

	plain := fmt.Errorf("boom")
	assert.Equal(t, plain, describe(plain))
}

func TestPlayerID(t *testing.T) {
	t.Parallel()

	e := game.NewEngine(game.WithSeed(1))
	state, err := e.StartGame([]string{"Alice", "Bob"})
	require.NoError(t, err)

	id, err := playerID(e, " alice ")
	require.NoError(t, err)
	assert.Equal(t, state.Players[0].ID, id)

	id, err = playerID(e, state.Players[1].ID)
	require.NoError(t, err)
	assert.Equal(t, state.Players[1].ID, id)

	_, err = playerID(e, "Carol")
	assert.ErrorContains(t, err, `no player "Carol"`)
}

func TestSeat(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	all, err := (&SimulateCmd{}).seat(cfg)
	require.NoError(t, err)
	assert.Len(t, all, len(cfg.Players))

	two, err := (&SimulateCmd{Players: []string{"BOLD", "coin"}}).seat(cfg)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "bold", two[0].Name)
	assert.Equal(t, 40, two[0].Strategy.Target)

	_, err = (&SimulateCmd{Players: []string{"nobody"}}).seat(cfg)
	assert.ErrorContains(t, err, "no player")
}

func TestPlayFullGame(t *testing.T) {
	t.Parallel()

	g, dir := testGlobals(t)
	require.NoError(t, (&GameNewCmd{Players: []string{"Alice", "Bob"}, Seed: 3, Round: true}).Run(g))
	id := onlyGame(t, dir)

	for round := range 2 {
		for _, card := range []string{"12", "11", "10", "9", "8", "7", "6", "+10", "x2"} {
			require.NoError(t, (&GameDealCmd{ID: id, Player: "alice", Card: card}).Run(g), "round %d card %s", round+1, card)
		}
		require.NoError(t, (&GameStayCmd{ID: id, Player: "Alice"}).Run(g))
		require.NoError(t, (&GameStayCmd{ID: id, Player: "Bob"}).Run(g))
		require.NoError(t, (&GameEndRoundCmd{ID: id, Next: round == 0}).Run(g))
	}

	s, err := filestore.New(dir, zerolog.Nop())
	require.NoError(t, err)
	state, events, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, state.Complete)
	assert.Equal(t, 322, state.Scores[state.Winner])
	assert.NotEmpty(t, events)

	require.NoError(t, (&ReplayCmd{ID: id, Quiet: true}).Run(g))
	require.NoError(t, (&GameShowCmd{ID: id, Events: true, Stats: true}).Run(g))
	require.NoError(t, (&StatsCmd{}).Run(g))
	require.NoError(t, (&StatsCmd{Game: id}).Run(g))
	require.NoError(t, (&StatsCmd{Player: "Alice"}).Run(g))
	require.NoError(t, (&GameListCmd{}).Run(g))

	err = (&GameRoundCmd{ID: id}).Run(g)
	assert.ErrorIs(t, err, gameerr.ErrGameComplete)

	require.NoError(t, (&GameDeleteCmd{ID: id}).Run(g))
	_, _, err = s.Load(context.Background(), id)
	assert.ErrorIs(t, err, gameerr.ErrGameNotFound)
}

func TestRejectedCommandIsNotSaved(t *testing.T) {
	t.Parallel()

	g, dir := testGlobals(t)
	require.NoError(t, (&GameNewCmd{Players: []string{"Alice", "Bob"}, Seed: 5, Round: true}).Run(g))
	id := onlyGame(t, dir)

	require.NoError(t, (&GameDealCmd{ID: id, Player: "Bob", Card: "5"}).Run(g))
	require.NoError(t, (&GameDealCmd{ID: id, Player: "Bob", Card: "5"}).Run(g))

	err := (&GameStayCmd{ID: id, Player: "Bob"}).Run(g)
	assert.ErrorIs(t, err, gameerr.ErrPlayerNotActive)
	err = (&GameDealCmd{ID: id, Player: "Bob", Card: "13"}).Run(g)
	assert.ErrorContains(t, err, "invalid card")
	err = (&GameEndRoundCmd{ID: id}).Run(g)
	assert.ErrorIs(t, err, gameerr.ErrPlayersStillActive)

	s, err := filestore.New(dir, zerolog.Nop())
	require.NoError(t, err)
	_, events, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, events, 4, "game, round and two deals")
}

func TestSimulateWritesCSV(t *testing.T) {
	t.Parallel()

	g, dir := testGlobals(t)
	csvPath := filepath.Join(t.TempDir(), "results.csv")
	cmd := &SimulateCmd{Games: 4, Seed: 11, CSV: csvPath, Save: true, Quiet: true}
	require.NoError(t, cmd.Run(g))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "threshold(15)")

	s, err := filestore.New(dir, zerolog.Nop())
	require.NoError(t, err)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 4)
}
