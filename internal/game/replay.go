package game

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/gameerr"
)

// Replay rebuilds a game by folding events from the start. Every event must
// be legal in the state folded so far; otherwise Replay fails with a
// CorruptLog error wrapping the reason.
func Replay(events []eventlog.Event) (*GameState, error) {
	if err := eventlog.Validate(events); err != nil {
		return nil, gameerr.Wrap(gameerr.CodeCorruptLog, err, "invalid event log")
	}
	if len(events) == 0 {
		return nil, gameerr.New(gameerr.CodeCorruptLog, "event log is empty")
	}

	var (
		state *GameState
		err   error
	)
	for _, ev := range events {
		state, err = apply(state, ev)
		if err != nil {
			return nil, gameerr.Wrap(gameerr.CodeCorruptLog, err, "event %d (%s) cannot be applied", ev.Seq, ev.Kind)
		}
	}
	return state, nil
}

// Resume rebuilds an engine from a stored state and its event log. The log is
// the source of truth: if replaying it does not reproduce the stored state,
// Resume fails with StateDiverged.
func Resume(state *GameState, events []eventlog.Event, opts ...Option) (*Engine, error) {
	replayed, err := Replay(events)
	if err != nil {
		return nil, err
	}
	if diff := Diff(state, replayed); diff != "" {
		return nil, gameerr.New(gameerr.CodeStateDiverged, "stored state for game %s does not match its event log:\n%s", replayed.ID, diff)
	}

	e := NewEngine(opts...)
	e.state = replayed
	e.log = eventlog.New(events)
	return e, nil
}

// Diff describes how two game states differ, or returns "" when they are
// equal. Nil and empty collections compare equal.
func Diff(a, b *GameState) string {
	return cmp.Diff(a, b, cmpopts.EquateEmpty())
}
