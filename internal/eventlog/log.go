// Package eventlog is the append-only record of everything that happened in a
// game. Events are numbered from 1 and are never rewritten; the game state is
// a fold over them.
package eventlog

import (
	"fmt"
	"slices"
	"time"
)

// Event is a single accepted action.
type Event struct {
	Seq       int
	Timestamp time.Time
	Kind      Kind
	Payload   Payload
}

// Player returns the player the event concerns, if any.
func (e Event) Player() string {
	if p, ok := e.Payload.(playerScoped); ok {
		return p.Player()
	}
	return ""
}

// Round returns the round the event belongs to, or 0 for game level events.
func (e Event) Round() int {
	if p, ok := e.Payload.(roundScoped); ok {
		return p.RoundNumber()
	}
	return 0
}

// Log is an ordered, append-only sequence of events. The zero value is an
// empty log. It is not safe for concurrent use.
type Log struct {
	events []Event
}

// New returns a log holding events. The events are not validated; call
// Validate before trusting input read from storage.
func New(events []Event) *Log {
	return &Log{events: slices.Clone(events)}
}

// Append adds payload as the next event and returns it.
func (l *Log) Append(at time.Time, payload Payload) Event {
	ev := Event{
		Seq:       len(l.events) + 1,
		Timestamp: at,
		Kind:      payload.Kind(),
		Payload:   payload,
	}
	l.events = append(l.events, ev)
	return ev
}

// Events returns a copy of every event in order.
func (l *Log) Events() []Event {
	return slices.Clone(l.events)
}

// Len returns the number of events.
func (l *Log) Len() int {
	return len(l.events)
}

// Last returns the most recent event.
func (l *Log) Last() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}

// After returns the events with a sequence number greater than seq.
func (l *Log) After(seq int) []Event {
	if seq < 0 {
		seq = 0
	}
	if seq >= len(l.events) {
		return nil
	}
	return slices.Clone(l.events[seq:])
}

// ForPlayer returns the events concerning playerID.
func (l *Log) ForPlayer(playerID string) []Event {
	return l.filter(func(e Event) bool { return e.Player() == playerID })
}

// ForRound returns the events belonging to round n.
func (l *Log) ForRound(n int) []Event {
	return l.filter(func(e Event) bool { return e.Round() == n })
}

// CountByKind counts the events of each kind.
func (l *Log) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range l.events {
		counts[e.Kind]++
	}
	return counts
}

// Clone returns an independent copy of the log. Payloads are shared; they
// are never mutated once appended.
func (l *Log) Clone() *Log {
	return &Log{events: slices.Clone(l.events)}
}

// Validate checks that sequence numbers run from 1 without gaps, that each
// event's kind matches its payload and that timestamps never go backwards.
func (l *Log) Validate() error {
	return Validate(l.events)
}

// Validate checks the ordering of events; see Log.Validate.
func Validate(events []Event) error {
	var prev time.Time
	for i, e := range events {
		if e.Seq != i+1 {
			return fmt.Errorf("event %d has sequence number %d", i+1, e.Seq)
		}
		if e.Payload == nil {
			return fmt.Errorf("event %d has no payload", e.Seq)
		}
		if e.Payload.Kind() != e.Kind {
			return fmt.Errorf("event %d is %s but carries a %s payload", e.Seq, e.Kind, e.Payload.Kind())
		}
		if e.Timestamp.Before(prev) {
			return fmt.Errorf("event %d is timestamped before event %d", e.Seq, e.Seq-1)
		}
		prev = e.Timestamp
	}
	return nil
}

func (l *Log) filter(keep func(Event) bool) []Event {
	var out []Event
	for _, e := range l.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
