// Package store defines how games are persisted. A stored game is its full
// state plus its full event log, written together so that neither can be
// observed without the other.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
)

// Store persists games. Implementations satisfy game.Saver so an Engine can
// write through them directly.
type Store interface {
	game.Saver
	Load(ctx context.Context, gameID string) (*game.GameState, []eventlog.Event, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, gameID string) error
	Close() error
}

// Summary describes a stored game without its rounds or events.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Players   []string  `json:"players"`
	Rounds    int       `json:"rounds"`
	Events    int       `json:"events"`
	Complete  bool      `json:"complete"`
	Winner    string    `json:"winner,omitempty"`
}

// Summarize builds the summary of a game. UpdatedAt is the timestamp of the
// last event.
func Summarize(state *game.GameState, events []eventlog.Event) Summary {
	s := Summary{
		ID:        state.ID,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.CreatedAt,
		Rounds:    len(state.Rounds),
		Events:    len(events),
		Complete:  state.Complete,
	}
	for _, p := range state.Players {
		s.Players = append(s.Players, p.Name)
	}
	if state.Winner != "" {
		if p, ok := state.Player(state.Winner); ok {
			s.Winner = p.Name
		}
	}
	if n := len(events); n > 0 {
		s.UpdatedAt = events[n-1].Timestamp
	}
	return s
}

// Resume loads a game and rebuilds its engine, writing further commands
// back to s.
func Resume(ctx context.Context, s Store, gameID string, opts ...game.Option) (*game.Engine, error) {
	state, events, err := s.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	opts = append([]game.Option{game.WithSaver(s)}, opts...)
	return game.Resume(state, events, opts...)
}

// LoadCompleted returns every completed game, oldest first. Games that fail
// to load are skipped and reported together in the returned error.
func LoadCompleted(ctx context.Context, s Store) ([]*game.GameState, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		games []*game.GameState
		errs  []error
	)
	for _, sum := range summaries {
		if !sum.Complete {
			continue
		}
		state, _, err := s.Load(ctx, sum.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		games = append(games, state)
	}
	return games, errors.Join(errs...)
}

// NotFound returns the error for a missing game.
func NotFound(gameID string) error {
	return gameerr.New(gameerr.CodeGameNotFound, "game %s not found", gameID)
}
