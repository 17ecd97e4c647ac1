package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/rules"
)

var epoch = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

type testEngine struct {
	*Engine
	clock *quartz.Mock
}

// newTestEngine returns an engine with a mock clock, a fixed seed and
// player IDs p1, p2, ...
func newTestEngine(t *testing.T, opts ...Option) *testEngine {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(epoch)
	n := 0
	base := []Option{
		WithClock(clock),
		WithSeed(42),
		WithPlayerIDs(func() string {
			n++
			return fmt.Sprintf("p%d", n)
		}),
	}
	return &testEngine{Engine: NewEngine(append(base, opts...)...), clock: clock}
}

// start begins a game for names and its first round.
func (te *testEngine) start(t *testing.T, names ...string) *GameState {
	t.Helper()
	_, err := te.StartGame(names)
	require.NoError(t, err)
	state, err := te.StartRound()
	require.NoError(t, err)
	return state
}

// give deals the listed cards to playerID from the deck.
func (te *testEngine) give(t *testing.T, playerID string, cards string) *GameState {
	t.Helper()
	parsed, err := deck.ParseCards(cards)
	require.NoError(t, err)
	var state *GameState
	for _, c := range parsed {
		te.clock.Advance(time.Second)
		_, state, err = te.DealCard(playerID, &c)
		require.NoError(t, err, "dealing %s to %s", c, playerID)
	}
	return state
}

func roundPlayer(t *testing.T, s *GameState, playerID string) *PlayerState {
	t.Helper()
	r := s.LastRound()
	require.NotNil(t, r)
	p, ok := r.Player(playerID)
	require.True(t, ok)
	return p
}

// duplicateIn returns a number card held twice.
func duplicateIn(hand []deck.Card) (deck.Card, bool) {
	seen := map[deck.Card]bool{}
	for _, c := range hand {
		if c.IsNumber() && seen[c] {
			return c, true
		}
		seen[c] = true
	}
	return deck.Card{}, false
}

// playRandomGame drives e to completion with random hit/stay decisions and
// checks the card conservation invariant after every command.
func playRandomGame(t *testing.T, e *Engine, rng *rand.Rand, names []string) *GameState {
	t.Helper()
	state, err := e.StartGame(names)
	require.NoError(t, err)

	for round := 0; round < 100 && !state.Complete; round++ {
		state, err = e.StartRound()
		require.NoError(t, err)

		for {
			r := state.CurrentRound()
			require.Equal(t, deck.TotalCards, r.Deck.Remaining()+r.Deck.Discarded()+r.CardsInHand())

			active := r.ActivePlayers()
			if len(active) == 0 || r.Deck.Exhausted() {
				break
			}
			id := active[rng.IntN(len(active))]
			p, _ := r.Player(id)

			switch {
			case p.Unresolved():
				dup, ok := duplicateIn(p.Hand)
				require.True(t, ok)
				state, err = e.UseSecondChance(id, dup)
			case p.ForcedDraws > 0 || p.Breakdown().Final < 15 || rng.Float64() < 0.4:
				_, state, err = e.DealCard(id, nil)
			default:
				state, err = e.Stay(id)
			}
			require.NoError(t, err)
		}

		state, err = e.EndRound()
		require.NoError(t, err)
		last := state.LastRound()
		for _, p := range last.Players {
			if p.Status == Busted {
				require.Zero(t, p.RoundScore)
			} else {
				require.Equal(t, rules.Score(p.Hand).Final, p.RoundScore)
			}
		}
	}
	require.True(t, state.Complete, "game did not finish")
	return state
}
