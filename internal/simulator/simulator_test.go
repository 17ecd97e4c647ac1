package simulator

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/rules"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel})
}

func testPlayers() []PlayerConfig {
	return []PlayerConfig{
		{Name: "Cautious", Strategy: StrategyConfig{Kind: StrategyThreshold, Target: 15}},
		{Name: "Bold", Strategy: StrategyConfig{Kind: StrategyThreshold, Target: 35}},
		{Name: "Coin", Strategy: StrategyConfig{Kind: StrategyRandom, HitProbability: 0.6}},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Games: 10, Seed: 12345, Players: testPlayers()})
	require.NoError(t, err)
	assert.Equal(t, int64(12345), s.Seed())
	assert.Positive(t, s.config.Parallelism)
	assert.Equal(t, DefaultMaxRounds, s.config.MaxRounds)

	s, err = New(Config{Games: 1, Players: testPlayers()})
	require.NoError(t, err)
	assert.NotZero(t, s.Seed(), "a zero seed is replaced by a random one")
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		errMsg string
	}{
		{"no games", Config{Games: 0, Players: testPlayers()}, "must be positive"},
		{"one player", Config{Games: 1, Players: testPlayers()[:1]}, "at least 2 players"},
		{"unknown strategy", Config{Games: 1, Players: []PlayerConfig{
			{Name: "A", Strategy: StrategyConfig{Kind: "psychic"}},
			{Name: "B", Strategy: StrategyConfig{Kind: StrategyThreshold, Target: 10}},
		}}, "unknown strategy"},
		{"bad probability", Config{Games: 1, Players: []PlayerConfig{
			{Name: "A", Strategy: StrategyConfig{Kind: StrategyRandom, HitProbability: 1.5}},
			{Name: "B", Strategy: StrategyConfig{Kind: StrategyThreshold, Target: 10}},
		}}, "outside [0, 1]"},
		{"bad target", Config{Games: 1, Players: []PlayerConfig{
			{Name: "A", Strategy: StrategyConfig{Kind: StrategyThreshold}},
			{Name: "B", Strategy: StrategyConfig{Kind: StrategyThreshold, Target: 10}},
		}}, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestRunCompletesEveryGame(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Games: 20, Seed: 7, Players: testPlayers(), Logger: testLogger()})
	require.NoError(t, err)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, results.Games, 20)
	assert.Equal(t, int64(7), results.Seed)
	for i, g := range results.Games {
		assert.Equal(t, i, g.Index)
		assert.NotEmpty(t, g.GameID)
		assert.Positive(t, g.Rounds)
		require.Len(t, g.Players, 3)

		var winner *PlayerResult
		drawn := 0
		for j := range g.Players {
			if g.Players[j].Name == g.Winner {
				winner = &g.Players[j]
			}
			assert.Equal(t, j, g.Players[j].Seat)
			drawn += g.Players[j].CardsDrawn
		}
		assert.Positive(t, drawn)
		require.NotNil(t, winner, "game %d has no winner", i)
		assert.GreaterOrEqual(t, winner.FinalScore, rules.WinningScore)
		assert.Equal(t, winner.Strategy, g.WinnerStrategy)
	}

	require.Len(t, results.Strategies, 3)
	total := 0
	for _, st := range results.Strategies {
		assert.Equal(t, 20, st.Games)
		total += st.Wins
	}
	assert.Equal(t, 20, total)
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	run := func(parallelism int) *Results {
		s, err := New(Config{Games: 12, Seed: 99, Parallelism: parallelism, Players: testPlayers()})
		require.NoError(t, err)
		results, err := s.Run(context.Background())
		require.NoError(t, err)
		for i := range results.Games {
			results.Games[i].GameID = ""
		}
		return results
	}

	serial, parallel := run(1), run(4)
	assert.Equal(t, serial.Games, parallel.Games)
	assert.Equal(t, serial.Strategies, parallel.Strategies)
}

func TestSeatingRotates(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Games: 3, Seed: 1, Players: testPlayers()})
	require.NoError(t, err)
	first := []string{s.seating(0)[0].Name, s.seating(1)[0].Name, s.seating(2)[0].Name}
	assert.Equal(t, []string{"Cautious", "Bold", "Coin"}, first)
	assert.Equal(t, "Cautious", s.seating(3)[0].Name)
}

// memorySaver keeps the latest save of every game.
type memorySaver struct {
	mu     sync.Mutex
	events map[string][]eventlog.Event
}

func (m *memorySaver) Save(_ context.Context, state *game.GameState, events []eventlog.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[state.ID] = events
	return nil
}

func TestRunSavesGames(t *testing.T) {
	t.Parallel()

	saver := &memorySaver{events: make(map[string][]eventlog.Event)}
	s, err := New(Config{Games: 4, Seed: 3, Players: testPlayers(), Saver: saver})
	require.NoError(t, err)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, saver.events, 4)
	for _, g := range results.Games {
		events, ok := saver.events[g.GameID]
		require.True(t, ok)
		state, err := game.Replay(events)
		require.NoError(t, err)
		assert.True(t, state.Complete)
		assert.Len(t, state.Rounds, g.Rounds)
	}
}

func TestRunStopsGamesWithoutWinner(t *testing.T) {
	t.Parallel()

	never := StrategyConfig{Kind: StrategyRandom, HitProbability: 0}
	s, err := New(Config{Games: 1, Seed: 5, MaxRounds: 3, Players: []PlayerConfig{
		{Name: "A", Strategy: never},
		{Name: "B", Strategy: never},
	}})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	assert.ErrorContains(t, err, "no winner after 3 rounds")
}

func TestRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := New(Config{Games: 5, Seed: 5, Players: testPlayers()})
	require.NoError(t, err)
	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	games := []GameResult{
		{Rounds: 4, Winner: "A", Players: []PlayerResult{
			{Name: "A", Strategy: "threshold(20)", FinalScore: 210, Flip7s: 1},
			{Name: "B", Strategy: "random(50%)", FinalScore: 120, Busts: 3},
		}},
		{Rounds: 6, Winner: "B", Players: []PlayerResult{
			{Name: "A", Strategy: "threshold(20)", FinalScore: 150, Busts: 1},
			{Name: "B", Strategy: "random(50%)", FinalScore: 230},
		}},
		{Rounds: 5, Winner: "A", Players: []PlayerResult{
			{Name: "A", Strategy: "threshold(20)", FinalScore: 205},
			{Name: "B", Strategy: "random(50%)", FinalScore: 90, Busts: 2},
		}},
	}

	stats := Aggregate(games)
	require.Len(t, stats, 2)

	th := stats[0]
	assert.Equal(t, "threshold(20)", th.Strategy)
	assert.Equal(t, 3, th.Games)
	assert.Equal(t, 2, th.Wins)
	assert.InDelta(t, 200.0/3, th.WinRate, 1e-9)
	assert.InDelta(t, (210.0+150+205)/3, th.AverageScore, 1e-9)
	assert.InDelta(t, 5.0, th.AverageRounds, 1e-9)
	assert.Equal(t, 1, th.Flip7s)
	assert.Equal(t, 1, th.Busts)

	rnd := stats[1]
	assert.Equal(t, "random(50%)", rnd.Strategy)
	assert.Equal(t, 1, rnd.Wins)
	assert.Equal(t, 5, rnd.Busts)

	assert.Empty(t, Aggregate(nil))
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Games: 3, Seed: 21, Players: testPlayers()[:2]})
	require.NoError(t, err)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+3*2)
	assert.Equal(t, csvHeader, rows[0])
	for _, row := range rows[1:] {
		require.Len(t, row, len(csvHeader))
		score, err := strconv.Atoi(row[9])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0)
	}
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, results.Games[0].Winner, rows[1][4])
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Games: 2, Seed: 8, Players: testPlayers()[:2]})
	require.NoError(t, err)
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, results)
	out := buf.String()
	assert.Contains(t, out, "seed 8")
	assert.Contains(t, out, "threshold(15)")
	assert.Contains(t, out, "threshold(35)")
	assert.Contains(t, out, "Games played: 2")
}
