package deck

import (
	"math/rand/v2"
	"slices"

	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/randutil"
)

// Composition of a standard deck.
const (
	TotalCards      = 94
	NumberCards     = 79
	ModifierCards   = 6
	ActionCards     = 9
	CopiesPerAction = 3
)

// Deck is the undrawn pile plus the discard pile for one round. The fields
// are exported so a round can be persisted and restored exactly; reshuffles
// are seeded from Seed and Reshuffles so that replays draw identical cards.
type Deck struct {
	Seed        int64  `toml:"seed" json:"seed"`
	Reshuffles  int    `toml:"reshuffles" json:"reshuffles"`
	Undrawn     []Card `toml:"undrawn" json:"undrawn"`
	DiscardPile []Card `toml:"discard" json:"discard"`
}

// Build returns the 94 cards of a standard deck in a fixed order.
func Build() []Card {
	cards := make([]Card, 0, TotalCards)
	cards = append(cards, NumberCard(0))
	for v := 1; v <= MaxNumber; v++ {
		for range v {
			cards = append(cards, NumberCard(v))
		}
	}
	for _, m := range Modifiers {
		cards = append(cards, ModifierCard(m))
	}
	for _, a := range Actions {
		for range CopiesPerAction {
			cards = append(cards, ActionCard(a))
		}
	}
	return cards
}

// New creates a full deck shuffled from seed.
func New(seed int64) *Deck {
	d := &Deck{
		Seed:    seed,
		Undrawn: Build(),
	}
	shuffle(d.Undrawn, randutil.New(seed))
	return d
}

// shuffle randomizes cards in place using Fisher-Yates
func shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Draw removes and returns the top card. When the undrawn pile is empty the
// discard pile is reshuffled into it first; if both are empty Draw fails with
// a DeckExhausted error and leaves the deck unchanged.
func (d *Deck) Draw() (Card, error) {
	if len(d.Undrawn) == 0 {
		if err := d.reshuffle(); err != nil {
			return Card{}, err
		}
	}
	card := d.Undrawn[0]
	d.Undrawn = slices.Delete(d.Undrawn, 0, 1)
	return card, nil
}

// Take removes the first undrawn card equal to card. It is used when the
// cards are dealt from a physical deck and only logged here.
func (d *Deck) Take(card Card) error {
	if !card.IsValid() {
		return gameerr.New(gameerr.CodeInvalidCard, "invalid card")
	}
	if i := slices.Index(d.Undrawn, card); i >= 0 {
		d.Undrawn = slices.Delete(d.Undrawn, i, i+1)
		return nil
	}
	if len(d.Undrawn) == 0 {
		if len(d.DiscardPile) == 0 {
			return gameerr.New(gameerr.CodeDeckExhausted, "deck exhausted: no cards to draw or reshuffle")
		}
		if slices.Contains(d.DiscardPile, card) {
			if err := d.reshuffle(); err != nil {
				return err
			}
			i := slices.Index(d.Undrawn, card)
			d.Undrawn = slices.Delete(d.Undrawn, i, i+1)
			return nil
		}
	}
	return gameerr.New(gameerr.CodeCardNotInDeck, "card %s is not left in the deck", card)
}

// Peek returns the top card without removing it.
func (d *Deck) Peek() (Card, bool) {
	if len(d.Undrawn) == 0 {
		return Card{}, false
	}
	return d.Undrawn[0], true
}

// Discard appends cards to the discard pile.
func (d *Deck) Discard(cards ...Card) {
	d.DiscardPile = append(d.DiscardPile, cards...)
}

// reshuffle moves the discard pile into the undrawn pile and shuffles it.
func (d *Deck) reshuffle() error {
	if len(d.DiscardPile) == 0 {
		return gameerr.New(gameerr.CodeDeckExhausted, "deck exhausted: no cards to draw or reshuffle")
	}
	d.Reshuffles++
	d.Undrawn = append(make([]Card, 0, len(d.DiscardPile)), d.DiscardPile...)
	d.DiscardPile = nil
	shuffle(d.Undrawn, randutil.New(randutil.Derive(d.Seed, d.Reshuffles)))
	return nil
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.Undrawn)
}

// Discarded returns the number of cards in the discard pile.
func (d *Deck) Discarded() int {
	return len(d.DiscardPile)
}

// Exhausted reports whether no card can be drawn, even after a reshuffle.
func (d *Deck) Exhausted() bool {
	return len(d.Undrawn) == 0 && len(d.DiscardPile) == 0
}

// Clone returns a deep copy of the deck.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	return &Deck{
		Seed:        d.Seed,
		Reshuffles:  d.Reshuffles,
		Undrawn:     slices.Clone(d.Undrawn),
		DiscardPile: slices.Clone(d.DiscardPile),
	}
}

// Composition counts the cards by face.
func Composition(cards []Card) map[Card]int {
	counts := make(map[Card]int)
	for _, c := range cards {
		counts[c]++
	}
	return counts
}

// Statistics summarises the make-up of a standard deck.
type Statistics struct {
	Total              int
	Numbers            int
	Modifiers          int
	Actions            int
	AverageNumberValue float64
}

// StandardStatistics returns the statistics of a freshly built deck.
func StandardStatistics() Statistics {
	var s Statistics
	sum := 0
	for _, c := range Build() {
		s.Total++
		switch c.Kind() {
		case Number:
			s.Numbers++
			sum += c.Value()
		case Modifier:
			s.Modifiers++
		case Action:
			s.Actions++
		}
	}
	if s.Numbers > 0 {
		s.AverageNumberValue = float64(sum) / float64(s.Numbers)
	}
	return s
}
