package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/simulator"
	"github.com/lox/flip7/internal/statistics"
	"github.com/lox/flip7/internal/store"
)

func dealAll(t *testing.T, e *game.Engine, id, cards string) {
	t.Helper()
	parsed, err := deck.ParseCards(cards)
	require.NoError(t, err)
	for _, c := range parsed {
		_, _, err := e.DealCard(id, &c)
		require.NoError(t, err)
	}
}

func TestGameInProgress(t *testing.T) {
	t.Parallel()

	e := game.NewEngine(game.WithSeed(1))
	state, err := e.StartGame([]string{"Alice", "Bob"})
	require.NoError(t, err)
	assert.Contains(t, Game(state), "No rounds played yet")

	_, err = e.StartRound()
	require.NoError(t, err)
	alice, bob := state.Players[0].ID, state.Players[1].ID
	dealAll(t, e, alice, "7 x2 flip_three")
	dealAll(t, e, bob, "5 5")

	out := Game(e.State())
	assert.Contains(t, out, state.ID)
	assert.Contains(t, out, "Round 1")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "x2")
	assert.Contains(t, out, "flip3")
	assert.Contains(t, out, "3 forced")
	assert.Contains(t, out, "busted")
	assert.Contains(t, out, "Deck:")
}

func TestGameComplete(t *testing.T) {
	t.Parallel()

	e := game.NewEngine(game.WithSeed(2))
	state, err := e.StartGame([]string{"Alice", "Bob"})
	require.NoError(t, err)
	alice, bob := state.Players[0].ID, state.Players[1].ID
	for range 2 {
		_, err = e.StartRound()
		require.NoError(t, err)
		dealAll(t, e, alice, "12 11 10 9 8 7 6 +10 x2")
		_, err = e.Stay(alice)
		require.NoError(t, err)
		_, err = e.Stay(bob)
		require.NoError(t, err)
		_, err = e.EndRound()
		require.NoError(t, err)
	}

	final := e.State()
	require.True(t, final.Complete)
	out := Game(final)
	assert.Contains(t, out, "Alice wins")
	assert.Contains(t, out, "322")

	log := Events(final, e.Events())
	assert.Contains(t, log, "game started with Alice, Bob")
	assert.Contains(t, log, "Alice dealt x2 (logged)")
	assert.Contains(t, log, "Alice stayed on 161")
	assert.Contains(t, log, "round 2 ended (all_done), won by Alice")
	assert.Contains(t, log, "game won by Alice")

	gs, err := statistics.ForGame(final)
	require.NoError(t, err)
	out = GameStats(gs)
	assert.Contains(t, out, "Winner: Alice with 322 after 2 rounds")
	assert.Contains(t, out, "Most dealt:")

	board := Leaderboard(statistics.Leaderboard([]*game.GameState{final}))
	assert.Contains(t, board, "Alice")
	assert.Contains(t, board, "100.0")

	hist := Historical(statistics.Historical([]*game.GameState{final}))
	assert.Contains(t, hist, "Games: 1, rounds: 2")
	assert.Contains(t, hist, "Most wins: Alice")
}

func TestEmptyListings(t *testing.T) {
	t.Parallel()

	assert.Contains(t, Summaries(nil), "No saved games")
	assert.Contains(t, Leaderboard(nil), "No completed games")
}

func TestSummaries(t *testing.T) {
	t.Parallel()

	out := Summaries([]store.Summary{{
		ID:        "01jq5k3m8n9p0qrstvwxyz1234",
		CreatedAt: time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC),
		Players:   []string{"Alice", "Bob"},
		Rounds:    3,
		Complete:  true,
		Winner:    "Bob",
	}})
	assert.Contains(t, out, "01jq5k3m8n9p0qrstvwxyz1234")
	assert.Contains(t, out, "Alice, Bob")
	assert.Contains(t, out, "complete")
}

func TestSimulation(t *testing.T) {
	t.Parallel()

	sim, err := simulator.New(simulator.Config{Games: 2, Seed: 4, Players: []simulator.PlayerConfig{
		{Name: "a", Strategy: simulator.StrategyConfig{Kind: simulator.StrategyThreshold, Target: 20}},
		{Name: "b", Strategy: simulator.StrategyConfig{Kind: simulator.StrategyRandom, HitProbability: 0.7}},
	}})
	require.NoError(t, err)
	results, err := sim.Run(context.Background())
	require.NoError(t, err)

	out := Simulation(results)
	assert.Contains(t, out, "2 games")
	assert.Contains(t, out, "seed 4")
	assert.Contains(t, out, "threshold(20)")
	assert.Contains(t, out, "random(70%)")
}
