package statistics

import (
	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
)

// EventInsights is what can be read from an event log without folding it
type EventInsights struct {
	TotalEvents       int
	ByKind            map[eventlog.Kind]int
	CardsDealt        int
	CardsDrawn        int // Dealt off the top of the deck
	CardsLogged       int // Entered by hand
	ActionCards       int
	SecondChancesUsed int
	RoundsEnded       int
	DeckExhaustions   int
	PlayerActions     map[string]int // Events naming each player, by player ID
}

// AnalyzeEvents counts what happened in events.
func AnalyzeEvents(events []eventlog.Event) EventInsights {
	in := EventInsights{
		TotalEvents:   len(events),
		ByKind:        make(map[eventlog.Kind]int),
		PlayerActions: make(map[string]int),
	}
	for _, ev := range events {
		in.ByKind[ev.Kind]++
		if id := ev.Player(); id != "" {
			in.PlayerActions[id]++
		}

		switch p := ev.Payload.(type) {
		case *eventlog.CardDealt:
			in.CardsDealt++
			if p.Drawn {
				in.CardsDrawn++
			} else {
				in.CardsLogged++
			}
			if p.Card.Kind() == deck.Action {
				in.ActionCards++
			}
		case *eventlog.SecondChanceUsed:
			in.SecondChancesUsed++
		case *eventlog.RoundEnded:
			in.RoundsEnded++
			if p.Reason == eventlog.ReasonDeckExhausted {
				in.DeckExhaustions++
			}
		}
	}
	return in
}
