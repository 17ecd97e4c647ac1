// Package storetest holds the behaviour every store.Store must share, run
// by each implementation's tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/gameid"
	"github.com/lox/flip7/internal/store"
)

// Run exercises a store created fresh for each subtest by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, open(t)) })
	t.Run("WritesThroughEngine", func(t *testing.T) { testWritesThroughEngine(t, open(t)) })
	t.Run("ListAndDelete", func(t *testing.T) { testListAndDelete(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("LoadCompleted", func(t *testing.T) { testLoadCompleted(t, open(t)) })
}

var start = time.Date(2025, 4, 12, 20, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, s store.Store, at time.Time) (*game.Engine, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(at)
	return game.NewEngine(game.WithSaver(s), game.WithClock(clock), game.WithSeed(at.Unix())), clock
}

// playGame plays a scripted game. When finish is set the first player
// reaches the winning score.
func playGame(t *testing.T, e *game.Engine, clock *quartz.Mock, finish bool) *game.GameState {
	t.Helper()
	state, err := e.StartGame([]string{"Alice", "Bob"})
	require.NoError(t, err)
	alice, bob := state.Players[0].ID, state.Players[1].ID

	rounds := 1
	if finish {
		rounds = 2
	}
	for range rounds {
		_, err = e.StartRound()
		require.NoError(t, err)

		cards, err := deck.ParseCards("second_chance 12 11 11 10 9 8 7 6 +10 x2")
		require.NoError(t, err)
		for _, c := range cards {
			clock.Advance(time.Second)
			_, _, err = e.DealCard(alice, &c)
			require.NoError(t, err)
			if c == deck.NumberCard(11) {
				if p, _ := e.State().CurrentRound().Player(alice); p.Unresolved() {
					_, err = e.UseSecondChance(alice, c)
					require.NoError(t, err)
				}
			}
		}
		_, err = e.Stay(alice)
		require.NoError(t, err)

		_, _, err = e.DealCard(bob, nil)
		require.NoError(t, err)
		if p, _ := e.State().CurrentRound().Player(bob); p.IsActive() && p.ForcedDraws == 0 && !p.Unresolved() {
			_, err = e.Stay(bob)
			require.NoError(t, err)
		}
		for _, id := range e.State().CurrentRound().ActivePlayers() {
			// Bob drew an action card; keep drawing until he is done.
			for {
				p, _ := e.State().CurrentRound().Player(id)
				if !p.IsActive() {
					break
				}
				switch {
				case p.Unresolved():
					_, err = e.UseSecondChance(id, duplicate(p.Hand))
				case p.ForcedDraws > 0:
					_, _, err = e.DealCard(id, nil)
				default:
					_, err = e.Stay(id)
				}
				require.NoError(t, err)
			}
		}
		state, err = e.EndRound()
		require.NoError(t, err)
	}
	return state
}

func duplicate(hand []deck.Card) deck.Card {
	seen := map[deck.Card]bool{}
	for _, c := range hand {
		if c.IsNumber() && seen[c] {
			return c
		}
		seen[c] = true
	}
	panic(fmt.Sprintf("no duplicate in %s", deck.FormatCards(hand)))
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	e, clock := newEngine(t, s, start)
	want := playGame(t, e, clock, true)
	require.True(t, want.Complete)

	got, events, err := s.Load(ctx, want.ID)
	require.NoError(t, err)
	assert.Empty(t, game.Diff(want, got))
	require.Len(t, events, len(e.Events()))
	for i, ev := range e.Events() {
		assert.Equal(t, ev.Seq, events[i].Seq)
		assert.Equal(t, ev.Kind, events[i].Kind)
		assert.True(t, ev.Timestamp.Equal(events[i].Timestamp), "event %d timestamp", ev.Seq)
		assert.Equal(t, ev.Payload, events[i].Payload, "event %d payload", ev.Seq)
	}

	replayed, err := game.Replay(events)
	require.NoError(t, err)
	assert.Empty(t, game.Diff(got, replayed))
}

func testWritesThroughEngine(t *testing.T, s store.Store) {
	ctx := context.Background()
	e, clock := newEngine(t, s, start)
	state, err := e.StartGame([]string{"Carol", "Dave", "Erin"})
	require.NoError(t, err)
	_, err = e.StartRound()
	require.NoError(t, err)

	resumed, err := store.Resume(ctx, s, state.ID, game.WithClock(clock))
	require.NoError(t, err)
	carol := state.Players[0].ID
	seven := deck.NumberCard(7)
	_, _, err = resumed.DealCard(carol, &seven)
	require.NoError(t, err)

	got, events, err := s.Load(ctx, state.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, eventlog.KindCardDealt, events[2].Kind)
	p, ok := got.CurrentRound().Player(carol)
	require.True(t, ok)
	assert.Equal(t, []deck.Card{seven}, p.Hand)
}

func testListAndDelete(t *testing.T, s store.Store) {
	ctx := context.Background()

	e1, c1 := newEngine(t, s, start)
	first := playGame(t, e1, c1, false)
	e2, c2 := newEngine(t, s, start.Add(time.Hour))
	second := playGame(t, e2, c2, true)

	summaries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, []string{"Alice", "Bob"}, summaries[0].Players)
	assert.Equal(t, 1, summaries[0].Rounds)
	assert.False(t, summaries[0].Complete)
	assert.Empty(t, summaries[0].Winner)
	assert.Equal(t, len(e1.Events()), summaries[0].Events)
	assert.True(t, start.Equal(summaries[0].CreatedAt))

	assert.Equal(t, second.ID, summaries[1].ID)
	assert.True(t, summaries[1].Complete)
	assert.Equal(t, "Alice", summaries[1].Winner)
	assert.Equal(t, 2, summaries[1].Rounds)
	assert.True(t, summaries[1].UpdatedAt.After(summaries[1].CreatedAt))

	require.NoError(t, s.Delete(ctx, first.ID))
	summaries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, second.ID, summaries[0].ID)

	_, _, err = s.Load(ctx, first.ID)
	assert.ErrorIs(t, err, gameerr.ErrGameNotFound)
	assert.ErrorIs(t, s.Delete(ctx, first.ID), gameerr.ErrGameNotFound)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, _, err := s.Load(ctx, gameid.Generate())
	assert.ErrorIs(t, err, gameerr.ErrGameNotFound)
	assert.Equal(t, gameerr.KindPersistence, gameerr.KindOf(err))

	summaries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func testLoadCompleted(t *testing.T, s store.Store) {
	ctx := context.Background()
	e1, c1 := newEngine(t, s, start)
	playGame(t, e1, c1, false)
	e2, c2 := newEngine(t, s, start.Add(time.Minute))
	done := playGame(t, e2, c2, true)

	games, err := store.LoadCompleted(ctx, s)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, done.ID, games[0].ID)
	assert.Equal(t, done.Scores, games[0].Scores)
}
