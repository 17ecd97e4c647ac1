// Package rules holds the stateless Flip 7 scoring and bust rules. Every
// function takes a hand (the ordered cards a player holds this round) and
// never mutates it.
package rules

import (
	"slices"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/gameerr"
)

const (
	WinningScore   = 200
	Flip7Bonus     = 15
	Flip7Cards     = 7
	FlipThreeDraws = 3
)

// Breakdown is the derived score of a hand.
type Breakdown struct {
	Base       int `toml:"base" json:"base"`
	Bonus      int `toml:"bonus" json:"bonus"`
	Multiplier int `toml:"multiplier" json:"multiplier"`
	Flip7      int `toml:"flip7" json:"flip7"`
	Final      int `toml:"final" json:"final"`
}

// Score computes (base + bonus) × multiplier + flip7 for hand.
func Score(hand []deck.Card) Breakdown {
	b := Breakdown{Multiplier: 1}
	for _, c := range hand {
		switch c.Kind() {
		case deck.Number:
			b.Base += c.Value()
		case deck.Modifier:
			if c.Modifier() == deck.Times2 {
				b.Multiplier *= 2
			} else {
				b.Bonus += c.Modifier().Bonus()
			}
		case deck.Action:
		}
	}
	if IsFlip7(hand) {
		b.Flip7 = Flip7Bonus
	}
	b.Final = (b.Base+b.Bonus)*b.Multiplier + b.Flip7
	return b
}

// State is the bust state of a hand.
type State int

const (
	Ok State = iota
	Bust
)

func (s State) String() string {
	if s == Bust {
		return "bust"
	}
	return "ok"
}

// BustState reports Bust when the hand holds more duplicate number cards than
// unused second chances can cover.
func BustState(hand []deck.Card) State {
	if Excess(hand) > SecondChances(hand) {
		return Bust
	}
	return Ok
}

// IsBusted reports whether hand is bust.
func IsBusted(hand []deck.Card) bool {
	return BustState(hand) == Bust
}

// Unresolved reports whether hand holds a duplicate number card that has not
// been cancelled with a second chance.
func Unresolved(hand []deck.Card) bool {
	return Excess(hand) > 0
}

// Excess is the number of surplus number cards: the sum over values of
// (copies - 1).
func Excess(hand []deck.Card) int {
	seen := make(map[int]int)
	excess := 0
	for _, c := range hand {
		if !c.IsNumber() {
			continue
		}
		if seen[c.Value()] > 0 {
			excess++
		}
		seen[c.Value()]++
	}
	return excess
}

// SecondChances counts the unused second chance cards in hand.
func SecondChances(hand []deck.Card) int {
	n := 0
	for _, c := range hand {
		if c.IsAction(deck.SecondChance) {
			n++
		}
	}
	return n
}

// DistinctNumbers counts the distinct number values in hand.
func DistinctNumbers(hand []deck.Card) int {
	var seen [deck.MaxNumber + 1]bool
	n := 0
	for _, c := range hand {
		if c.IsNumber() && !seen[c.Value()] {
			seen[c.Value()] = true
			n++
		}
	}
	return n
}

// IsFlip7 reports whether hand holds exactly seven distinct number values.
func IsFlip7(hand []deck.Card) bool {
	return DistinctNumbers(hand) == Flip7Cards
}

// ApplySecondChance cancels one copy of duplicate using a second chance card.
// It returns the new hand and the two cards that leave it, for the discard
// pile.
func ApplySecondChance(hand []deck.Card, duplicate deck.Card) ([]deck.Card, []deck.Card, error) {
	sc := slices.IndexFunc(hand, func(c deck.Card) bool { return c.IsAction(deck.SecondChance) })
	if sc < 0 {
		return nil, nil, gameerr.New(gameerr.CodeNoSecondChanceAvailable, "no second chance card in hand")
	}
	if !duplicate.IsNumber() {
		return nil, nil, gameerr.New(gameerr.CodeNotADuplicate, "%s is not a number card", duplicate)
	}
	last := -1
	copies := 0
	for i, c := range hand {
		if c == duplicate {
			copies++
			last = i
		}
	}
	if copies < 2 {
		return nil, nil, gameerr.New(gameerr.CodeNotADuplicate, "%s is not duplicated in hand", duplicate)
	}

	next := make([]deck.Card, 0, len(hand)-2)
	for i, c := range hand {
		if i == sc || i == last {
			continue
		}
		next = append(next, c)
	}
	return next, []deck.Card{duplicate, deck.ActionCard(deck.SecondChance)}, nil
}

// Resolve applies second chances to every duplicate the hand can cover and
// returns the resolved hand with the cards it discarded.
func Resolve(hand []deck.Card) ([]deck.Card, []deck.Card) {
	current := slices.Clone(hand)
	var discarded []deck.Card
	for Unresolved(current) && SecondChances(current) > 0 {
		dup, ok := firstDuplicate(current)
		if !ok {
			break
		}
		next, out, err := ApplySecondChance(current, dup)
		if err != nil {
			break
		}
		current = next
		discarded = append(discarded, out...)
	}
	return current, discarded
}

func firstDuplicate(hand []deck.Card) (deck.Card, bool) {
	seen := make(map[deck.Card]bool)
	for _, c := range hand {
		if !c.IsNumber() {
			continue
		}
		if seen[c] {
			return c, true
		}
		seen[c] = true
	}
	return deck.Card{}, false
}

// Effect is what the engine must do after dealing a card.
type Effect int

const (
	EffectNone Effect = iota
	// EffectFreeze banks the hand and ends the player's round.
	EffectFreeze
	// EffectFlipThree forces FlipThreeDraws more cards before a stay.
	EffectFlipThree
	// EffectHold keeps the card in hand for later use.
	EffectHold
)

func (e Effect) String() string {
	switch e {
	case EffectFreeze:
		return "freeze"
	case EffectFlipThree:
		return "flip_three"
	case EffectHold:
		return "hold"
	default:
		return "none"
	}
}

// EffectOf returns the forced action for card.
func EffectOf(card deck.Card) Effect {
	switch card.Action() {
	case deck.Freeze:
		return EffectFreeze
	case deck.FlipThree:
		return EffectFlipThree
	case deck.SecondChance:
		return EffectHold
	default:
		return EffectNone
	}
}
