// Package simulator plays complete games between automated strategies
// through the game engine and aggregates the results.
package simulator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/randutil"
	"github.com/lox/flip7/internal/statistics"
)

// DefaultMaxRounds stops a game that never reaches the winning score, for
// example when every player always stays on an empty hand.
const DefaultMaxRounds = 500

// PlayerConfig seats a named player with a strategy.
type PlayerConfig struct {
	Name     string
	Strategy StrategyConfig
}

// Config holds configuration for running simulations
type Config struct {
	Games       int
	Parallelism int   // Games played at once; defaults to GOMAXPROCS
	Seed        int64 // Zero picks a random seed, reported in Results
	Players     []PlayerConfig
	MaxRounds   int
	Saver       game.Saver // Optional; receives every simulated game
	Logger      *log.Logger
}

// PlayerResult is one player's outcome in one game.
type PlayerResult struct {
	Name              string
	Strategy          string
	Seat              int
	FinalScore        int
	RoundsWon         int
	Flip7s            int
	Busts             int
	CardsDrawn        int
	AverageRoundScore float64
}

// GameResult is the outcome of one simulated game.
type GameResult struct {
	Index          int
	Seed           int64
	GameID         string
	Rounds         int
	Winner         string
	WinnerStrategy string
	Players        []PlayerResult
}

// StrategyStats aggregates a strategy across every game it played.
type StrategyStats struct {
	Strategy      string
	Games         int
	Wins          int
	WinRate       float64 // Percentage, 0-100
	AverageScore  float64
	AverageRounds float64
	Flip7s        int
	Busts         int
	Scores        statistics.Statistics // Final score per game
}

// Results are the outcome of a simulation run.
type Results struct {
	Seed       int64
	Games      []GameResult
	Strategies []StrategyStats // Ordered by win rate
}

// Simulator runs simulated games
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) (*Simulator, error) {
	if config.Games <= 0 {
		return nil, fmt.Errorf("number of games must be positive, got %d", config.Games)
	}
	if len(config.Players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(config.Players))
	}
	for _, p := range config.Players {
		if err := p.Strategy.Validate(); err != nil {
			return nil, fmt.Errorf("player %q: %w", p.Name, err)
		}
	}
	if config.Parallelism <= 0 {
		config.Parallelism = runtime.GOMAXPROCS(0)
	}
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	if config.Seed == 0 {
		config.Seed = randutil.NewSeed()
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}, nil
}

// Seed returns the root seed every game seed is derived from.
func (s *Simulator) Seed() int64 {
	return s.config.Seed
}

// Run plays every game and returns the results. Each game gets its own
// engine and a seed derived from the root seed, so results do not depend on
// parallelism.
func (s *Simulator) Run(ctx context.Context) (*Results, error) {
	results := make([]GameResult, s.config.Games)
	var done atomic.Int64
	every := max(s.config.Games/10, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallelism)
	for i := range s.config.Games {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := randutil.Derive(s.config.Seed, i)
			result, err := s.playGame(i, seed)
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", i+1, seed, err)
			}
			results[i] = result
			if n := done.Add(1); n%int64(every) == 0 || n == int64(s.config.Games) {
				s.config.Logger.Info("Simulated games", "done", n, "total", s.config.Games)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Results{
		Seed:       s.config.Seed,
		Games:      results,
		Strategies: Aggregate(results),
	}, nil
}

// seating rotates the configured players by game index so no strategy
// always sits first.
func (s *Simulator) seating(index int) []PlayerConfig {
	n := len(s.config.Players)
	seats := make([]PlayerConfig, n)
	for i := range n {
		seats[i] = s.config.Players[(i+index)%n]
	}
	return seats
}

func (s *Simulator) playGame(index int, seed int64) (GameResult, error) {
	opts := []game.Option{game.WithSeed(seed)}
	if s.config.Saver != nil {
		opts = append(opts, game.WithSaver(s.config.Saver))
	}
	e := game.NewEngine(opts...)

	seats := s.seating(index)
	names := make([]string, len(seats))
	for i, p := range seats {
		names[i] = p.Name
	}
	state, err := e.StartGame(names)
	if err != nil {
		return GameResult{}, err
	}

	strategies := make(map[string]Strategy, len(seats))
	labels := make(map[string]string, len(seats))
	for i, p := range seats {
		strat, err := NewStrategy(p.Strategy, randutil.New(randutil.Derive(seed, i)))
		if err != nil {
			return GameResult{}, err
		}
		strategies[state.Players[i].ID] = strat
		labels[p.Name] = strat.Name()
	}

	for !state.Complete {
		if len(state.Rounds) >= s.config.MaxRounds {
			return GameResult{}, fmt.Errorf("no winner after %d rounds", len(state.Rounds))
		}
		if state, err = playRound(e, strategies); err != nil {
			return GameResult{}, err
		}
	}

	s.config.Logger.Debug("Game complete", "index", index, "game_id", state.ID, "rounds", len(state.Rounds))
	return summarize(index, seed, state, e.Events(), labels), nil
}

// playRound deals one card per active player per pass, in seat order, until
// everyone is done or the deck runs out, then ends the round.
func playRound(e *game.Engine, strategies map[string]Strategy) (*game.GameState, error) {
	state, err := e.StartRound()
	if err != nil {
		return nil, err
	}
	scores := state.Scores

	for {
		r := e.State().CurrentRound()
		if r.AllDone() || r.Deck.Exhausted() {
			return e.EndRound()
		}
		for _, id := range r.ActivePlayers() {
			err := takeTurn(e, id, strategies[id], scores)
			if errors.Is(err, gameerr.ErrDeckExhausted) {
				break
			}
			if err != nil {
				return nil, err
			}
		}
	}
}

func takeTurn(e *game.Engine, id string, strat Strategy, scores map[string]int) error {
	r := e.State().CurrentRound()
	p, ok := r.Player(id)
	if !ok || !p.IsActive() {
		// Frozen or busted earlier in this pass.
		return nil
	}

	if p.ForcedDraws == 0 && !strat.Hit(Decision{Player: p, Round: r, Scores: scores}) {
		_, err := e.Stay(id)
		return err
	}
	_, state, err := e.DealCard(id, nil)
	if err != nil {
		return err
	}
	if p, _ := state.CurrentRound().Player(id); p.Unresolved() {
		dup, _ := duplicate(p.Hand)
		_, err = e.UseSecondChance(id, dup)
	}
	return err
}

func duplicate(hand []deck.Card) (deck.Card, bool) {
	seen := make(map[deck.Card]bool, len(hand))
	for _, c := range hand {
		if c.IsNumber() && seen[c] {
			return c, true
		}
		seen[c] = true
	}
	return deck.Card{}, false
}

func summarize(index int, seed int64, state *game.GameState, events []eventlog.Event, labels map[string]string) GameResult {
	result := GameResult{
		Index:  index,
		Seed:   seed,
		GameID: state.ID,
		Rounds: len(state.Rounds),
	}
	if winner, ok := state.Player(state.Winner); ok {
		result.Winner = winner.Name
		result.WinnerStrategy = labels[winner.Name]
	}

	drawn := make(map[string]int)
	for _, ev := range events {
		if ev.Kind == eventlog.KindCardDealt {
			drawn[ev.Player()]++
		}
	}

	games := []*game.GameState{state}
	for seat, p := range state.Players {
		ps := statistics.ForPlayer(p.Name, games)
		result.Players = append(result.Players, PlayerResult{
			Name:              p.Name,
			Strategy:          labels[p.Name],
			Seat:              seat,
			FinalScore:        state.Scores[p.ID],
			RoundsWon:         ps.RoundsWon,
			Flip7s:            ps.Flip7s,
			Busts:             ps.Busts,
			CardsDrawn:        drawn[p.ID],
			AverageRoundScore: ps.AverageRoundScore,
		})
	}
	return result
}

// Aggregate folds game results into per-strategy statistics, ordered by win
// rate, then wins, then name.
func Aggregate(games []GameResult) []StrategyStats {
	byName := make(map[string]*StrategyStats)
	rounds := make(map[string]int)
	for _, g := range games {
		for _, p := range g.Players {
			st, ok := byName[p.Strategy]
			if !ok {
				st = &StrategyStats{Strategy: p.Strategy}
				byName[p.Strategy] = st
			}
			st.Games++
			if p.Name == g.Winner {
				st.Wins++
			}
			st.Flip7s += p.Flip7s
			st.Busts += p.Busts
			st.Scores.AddInt(p.FinalScore)
			rounds[p.Strategy] += g.Rounds
		}
	}

	out := make([]StrategyStats, 0, len(byName))
	for name, st := range byName {
		st.WinRate = float64(st.Wins) / float64(st.Games) * 100
		st.AverageScore = st.Scores.Mean()
		st.AverageRounds = float64(rounds[name]) / float64(st.Games)
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b StrategyStats) int {
		if c := cmp.Compare(b.WinRate, a.WinRate); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.Strategy, b.Strategy)
	})
	return out
}
