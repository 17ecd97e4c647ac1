package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Card is.
type Kind uint8

const (
	Number Kind = iota + 1
	Modifier
	Action
)

// String returns the string representation of a kind
func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Modifier:
		return "modifier"
	case Action:
		return "action"
	default:
		return "?"
	}
}

// ModifierKind is the face of a modifier card.
type ModifierKind uint8

const (
	Plus2 ModifierKind = iota + 1
	Plus4
	Plus6
	Plus8
	Plus10
	Times2
)

// Modifiers lists every modifier face in deck order.
var Modifiers = []ModifierKind{Plus2, Plus4, Plus6, Plus8, Plus10, Times2}

// Bonus returns the points added by a +N modifier, 0 for ×2.
func (m ModifierKind) Bonus() int {
	switch m {
	case Plus2:
		return 2
	case Plus4:
		return 4
	case Plus6:
		return 6
	case Plus8:
		return 8
	case Plus10:
		return 10
	default:
		return 0
	}
}

// String returns the string representation of a modifier
func (m ModifierKind) String() string {
	switch m {
	case Times2:
		return "x2"
	case Plus2, Plus4, Plus6, Plus8, Plus10:
		return "+" + strconv.Itoa(m.Bonus())
	default:
		return "?"
	}
}

// ActionKind is the face of an action card.
type ActionKind uint8

const (
	Freeze ActionKind = iota + 1
	FlipThree
	SecondChance
)

// Actions lists every action face in deck order.
var Actions = []ActionKind{Freeze, FlipThree, SecondChance}

// String returns the string representation of an action
func (a ActionKind) String() string {
	switch a {
	case Freeze:
		return "freeze"
	case FlipThree:
		return "flip3"
	case SecondChance:
		return "second_chance"
	default:
		return "?"
	}
}

// MaxNumber is the highest number card value.
const MaxNumber = 12

// Card is a single Flip 7 card. It is a closed variant: the zero value is
// invalid and cards are only built through NumberCard, ModifierCard and
// ActionCard. Cards are comparable values.
type Card struct {
	kind Kind
	face uint8
}

// NumberCard returns the number card with value v (0–12).
func NumberCard(v int) Card {
	return Card{kind: Number, face: uint8(v)}
}

// ModifierCard returns the modifier card with face m.
func ModifierCard(m ModifierKind) Card {
	return Card{kind: Modifier, face: uint8(m)}
}

// ActionCard returns the action card with face a.
func ActionCard(a ActionKind) Card {
	return Card{kind: Action, face: uint8(a)}
}

// Kind returns which variant the card is.
func (c Card) Kind() Kind { return c.kind }

// Value returns the face value of a number card and 0 for other kinds.
func (c Card) Value() int {
	if c.kind != Number {
		return 0
	}
	return int(c.face)
}

// Modifier returns the modifier face, or 0 if c is not a modifier card.
func (c Card) Modifier() ModifierKind {
	if c.kind != Modifier {
		return 0
	}
	return ModifierKind(c.face)
}

// Action returns the action face, or 0 if c is not an action card.
func (c Card) Action() ActionKind {
	if c.kind != Action {
		return 0
	}
	return ActionKind(c.face)
}

// Equal reports whether c and other are the same card.
func (c Card) Equal(other Card) bool { return c == other }

// IsNumber reports whether c is a number card.
func (c Card) IsNumber() bool { return c.kind == Number }

// IsAction reports whether c is the action card a.
func (c Card) IsAction(a ActionKind) bool { return c.kind == Action && ActionKind(c.face) == a }

// IsValid reports whether c is one of the cards that can exist in a deck.
func (c Card) IsValid() bool {
	switch c.kind {
	case Number:
		return c.face <= MaxNumber
	case Modifier:
		return c.face >= uint8(Plus2) && c.face <= uint8(Times2)
	case Action:
		return c.face >= uint8(Freeze) && c.face <= uint8(SecondChance)
	default:
		return false
	}
}

// String returns the text form of the card: "7", "+4", "x2", "freeze",
// "flip3" or "second_chance".
func (c Card) String() string {
	switch c.kind {
	case Number:
		return strconv.Itoa(int(c.face))
	case Modifier:
		return ModifierKind(c.face).String()
	case Action:
		return ActionKind(c.face).String()
	default:
		return "?"
	}
}

// MarshalText encodes the card in its text form.
func (c Card) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("deck: cannot encode invalid card")
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card from its text form.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses the text form of a card. It is case insensitive and accepts
// a few common spellings ("×2", "flip_three", "second-chance", "sc").
func ParseCard(s string) (Card, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")

	switch norm {
	case "x2", "×2", "*2", "times2":
		return ModifierCard(Times2), nil
	case "freeze":
		return ActionCard(Freeze), nil
	case "flip3", "flip_three", "flipthree", "flip_3":
		return ActionCard(FlipThree), nil
	case "second_chance", "secondchance", "sc":
		return ActionCard(SecondChance), nil
	}

	if strings.HasPrefix(norm, "+") {
		n, err := strconv.Atoi(norm[1:])
		if err != nil {
			return Card{}, fmt.Errorf("invalid modifier card %q", s)
		}
		for _, m := range Modifiers {
			if m != Times2 && m.Bonus() == n {
				return ModifierCard(m), nil
			}
		}
		return Card{}, fmt.Errorf("invalid modifier card %q", s)
	}

	n, err := strconv.Atoi(norm)
	if err != nil || n < 0 || n > MaxNumber {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	return NumberCard(n), nil
}

// ParseCards parses a comma or whitespace separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// FormatCards renders cards as a space separated list.
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
