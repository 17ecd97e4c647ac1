// Package deck models the Flip 7 cards and the per-round deck.
//
// A standard deck holds 94 cards: number cards 0–12 (each value v appears v
// times, zero appears once), one each of the +2, +4, +6, +8, +10 and ×2
// modifiers, and three each of the Freeze, Flip Three and Second Chance action
// cards.
//
// Shuffles are seeded so that a round can be replayed exactly:
//
//	d := deck.New(seed)
//	card, err := d.Draw()
package deck
