package game

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/gameid"
	"github.com/lox/flip7/internal/randutil"
)

// Saver persists a game. The engine calls Save with the state and full event
// log it is about to commit; if Save fails nothing is committed.
type Saver interface {
	Save(ctx context.Context, state *GameState, events []eventlog.Event) error
}

// Engine runs a single game. Every command validates against the current
// state, records one event (two when a round ends the game), folds it into a
// copy of the state, saves, and only then commits. A rejected command leaves
// both the state and the log untouched.
type Engine struct {
	mu     sync.Mutex
	state  *GameState
	log    *eventlog.Log
	saver  Saver
	clock  quartz.Clock
	seeds  *randutil.Source
	newID  func() string
	logger zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSaver persists every accepted command through s.
func WithSaver(s Saver) Option {
	return func(e *Engine) { e.saver = s }
}

// WithClock sets the clock used to timestamp events.
func WithClock(c quartz.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSeed makes the round seeds a deterministic sequence rooted at seed.
// A zero seed picks a random root.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seeds = randutil.NewSource(seed) }
}

// WithPlayerIDs replaces the UUID generator used for new players.
func WithPlayerIDs(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine with no game started.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:    &eventlog.Log{},
		clock:  quartz.NewReal(),
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seeds == nil {
		e.seeds = randutil.NewSource(0)
	}
	return e
}

// State returns a copy of the current game state, or nil before StartGame.
func (e *Engine) State() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Events returns a copy of the event log.
func (e *Engine) Events() []eventlog.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Events()
}

// GameID returns the ID of the game, or "" before StartGame.
func (e *Engine) GameID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return ""
	}
	return e.state.ID
}

// StartGame seats the named players in order and starts a new game.
func (e *Engine) StartGame(names []string) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute("start_game", func(tx *txn) error {
		if tx.state != nil {
			return gameerr.New(gameerr.CodeGameAlreadyStarted, "game %s has already started", tx.state.ID)
		}
		seats := make([]eventlog.Seat, len(names))
		for i, name := range names {
			seats[i] = eventlog.Seat{ID: e.newID(), Name: strings.TrimSpace(name)}
		}
		return tx.emit(&eventlog.GameStarted{GameID: gameid.Generate(), Players: seats})
	})
}

// StartRound deals a fresh, newly shuffled deck and makes every player
// active.
func (e *Engine) StartRound() (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute("start_round", func(tx *txn) error {
		if err := checkCanStartRound(tx.state); err != nil {
			return err
		}
		return tx.emit(&eventlog.RoundStarted{
			Round: len(tx.state.Rounds) + 1,
			Seed:  e.seeds.Next(),
		})
	})
}

// DealCard gives playerID a card. With a nil card the top of the deck is
// drawn; otherwise the given card is taken out of the deck, for games dealt
// from a physical deck. It returns the card dealt.
func (e *Engine) DealCard(playerID string, card *deck.Card) (deck.Card, *GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var dealt deck.Card
	state, err := e.execute("deal", func(tx *txn) error {
		r, err := activeRound(tx.state)
		if err != nil {
			return err
		}
		if _, err := checkDeal(r, playerID); err != nil {
			return err
		}

		payload := &eventlog.CardDealt{Round: r.Number, PlayerID: playerID}
		if card != nil {
			payload.Card = *card
		} else {
			top, err := r.Deck.Clone().Draw()
			if err != nil {
				return err
			}
			payload.Card = top
			payload.Drawn = true
		}
		dealt = payload.Card
		return tx.emit(payload)
	})
	if err != nil {
		return deck.Card{}, nil, err
	}
	return dealt, state, nil
}

// Stay banks playerID's hand for the round.
func (e *Engine) Stay(playerID string) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute("stay", func(tx *txn) error {
		r, err := activeRound(tx.state)
		if err != nil {
			return err
		}
		p, err := checkStay(r, playerID)
		if err != nil {
			return err
		}
		return tx.emit(&eventlog.PlayerStayed{
			Round:    r.Number,
			PlayerID: playerID,
			Score:    p.Breakdown().Final,
		})
	})
}

// UseSecondChance cancels one copy of duplicate in playerID's hand with one
// of their second chance cards. Both cards go to the discard pile.
func (e *Engine) UseSecondChance(playerID string, duplicate deck.Card) (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute("second_chance", func(tx *txn) error {
		r, err := activeRound(tx.state)
		if err != nil {
			return err
		}
		if _, err := activePlayer(r, playerID); err != nil {
			return err
		}
		return tx.emit(&eventlog.SecondChanceUsed{
			Round:    r.Number,
			PlayerID: playerID,
			Card:     duplicate,
		})
	})
}

// EndRound banks the round once every player is done or the deck has run
// out, and ends the game if anyone has reached the winning score.
func (e *Engine) EndRound() (*GameState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute("end_round", func(tx *txn) error {
		r, err := activeRound(tx.state)
		if err != nil {
			return err
		}
		result, err := roundResult(r)
		if err != nil {
			return err
		}
		if err := tx.emit(result); err != nil {
			return err
		}
		if winner, ok := decideWinner(tx.state); ok {
			return tx.emit(&eventlog.GameEnded{
				Round:  r.Number,
				Winner: winner,
				Scores: maps.Clone(tx.state.Scores),
			})
		}
		return nil
	})
}

// txn is a command in flight: a private copy of the state and log that
// events are folded into before anything is committed.
type txn struct {
	state *GameState
	log   *eventlog.Log
	at    time.Time
}

func (tx *txn) emit(p eventlog.Payload) error {
	ev := tx.log.Append(tx.at, p)
	next, err := apply(tx.state, ev)
	if err != nil {
		return err
	}
	tx.state = next
	return nil
}

// execute runs a command against a copy of the state and commits it once
// saved. Callers hold e.mu.
func (e *Engine) execute(op string, fn func(*txn) error) (*GameState, error) {
	tx := &txn{
		state: e.state.Clone(),
		log:   e.log.Clone(),
		at:    e.now(),
	}
	if err := fn(tx); err != nil {
		e.logger.Debug().
			Str("op", op).
			Str("code", string(gameerr.CodeOf(err))).
			Err(err).
			Msg("Command rejected")
		return nil, err
	}

	if e.saver != nil {
		if err := e.saver.Save(context.Background(), tx.state.Clone(), tx.log.Events()); err != nil {
			e.logger.Warn().
				Str("op", op).
				Str("game_id", tx.state.ID).
				Err(err).
				Msg("Failed to save game, command discarded")
			return nil, gameerr.Wrap(gameerr.CodeSaveFailed, err, "save game %s", tx.state.ID)
		}
	}

	added := tx.log.Len() - e.log.Len()
	e.state, e.log = tx.state, tx.log
	last, _ := e.log.Last()
	e.logger.Debug().
		Str("op", op).
		Str("game_id", e.state.ID).
		Int("seq", last.Seq).
		Int("events", added).
		Str("kind", last.Kind.String()).
		Msg("Command accepted")
	return e.state.Clone(), nil
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC().Truncate(time.Millisecond)
}
