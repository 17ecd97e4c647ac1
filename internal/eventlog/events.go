package eventlog

import (
	"fmt"

	"github.com/lox/flip7/internal/deck"
)

// Kind identifies the payload carried by an event.
type Kind string

const (
	KindGameStarted      Kind = "game_started"
	KindRoundStarted     Kind = "round_started"
	KindCardDealt        Kind = "card_dealt"
	KindPlayerStayed     Kind = "player_stayed"
	KindSecondChanceUsed Kind = "second_chance_used"
	KindRoundEnded       Kind = "round_ended"
	KindGameEnded        Kind = "game_ended"
)

// Kinds lists every event kind in the order they first appear in a game.
var Kinds = []Kind{
	KindGameStarted,
	KindRoundStarted,
	KindCardDealt,
	KindPlayerStayed,
	KindSecondChanceUsed,
	KindRoundEnded,
	KindGameEnded,
}

// String returns the string representation of the event kind
func (k Kind) String() string {
	return string(k)
}

// Payload is the body of an event.
type Payload interface {
	Kind() Kind
}

// playerScoped payloads concern a single player.
type playerScoped interface {
	Player() string
}

// roundScoped payloads belong to a round.
type roundScoped interface {
	RoundNumber() int
}

// NewPayload returns an empty payload for kind, ready to be decoded into.
func NewPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindGameStarted:
		return &GameStarted{}, nil
	case KindRoundStarted:
		return &RoundStarted{}, nil
	case KindCardDealt:
		return &CardDealt{}, nil
	case KindPlayerStayed:
		return &PlayerStayed{}, nil
	case KindSecondChanceUsed:
		return &SecondChanceUsed{}, nil
	case KindRoundEnded:
		return &RoundEnded{}, nil
	case KindGameEnded:
		return &GameEnded{}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}

// Seat is a player taking part in a game.
type Seat struct {
	ID   string `toml:"id" json:"id"`
	Name string `toml:"name" json:"name"`
}

// GameStarted records the game ID and the seated players in seat order.
type GameStarted struct {
	GameID  string `toml:"game_id" json:"game_id"`
	Players []Seat `toml:"players" json:"players"`
}

func (*GameStarted) Kind() Kind { return KindGameStarted }

// RoundStarted records the seed the round's deck was shuffled with.
type RoundStarted struct {
	Round int   `toml:"round" json:"round"`
	Seed  int64 `toml:"seed" json:"seed"`
}

func (*RoundStarted) Kind() Kind         { return KindRoundStarted }
func (p *RoundStarted) RoundNumber() int { return p.Round }

// CardDealt records a card given to a player. Drawn is true when the card
// came off the top of the deck and false when it was logged by hand.
type CardDealt struct {
	Round    int       `toml:"round" json:"round"`
	PlayerID string    `toml:"player" json:"player"`
	Card     deck.Card `toml:"card" json:"card"`
	Drawn    bool      `toml:"drawn" json:"drawn"`
}

func (*CardDealt) Kind() Kind         { return KindCardDealt }
func (p *CardDealt) Player() string   { return p.PlayerID }
func (p *CardDealt) RoundNumber() int { return p.Round }

// PlayerStayed records a player banking their hand.
type PlayerStayed struct {
	Round    int    `toml:"round" json:"round"`
	PlayerID string `toml:"player" json:"player"`
	Score    int    `toml:"score" json:"score"`
}

func (*PlayerStayed) Kind() Kind         { return KindPlayerStayed }
func (p *PlayerStayed) Player() string   { return p.PlayerID }
func (p *PlayerStayed) RoundNumber() int { return p.Round }

// SecondChanceUsed records a duplicate cancelled by a second chance card.
type SecondChanceUsed struct {
	Round    int       `toml:"round" json:"round"`
	PlayerID string    `toml:"player" json:"player"`
	Card     deck.Card `toml:"card" json:"card"`
}

func (*SecondChanceUsed) Kind() Kind         { return KindSecondChanceUsed }
func (p *SecondChanceUsed) Player() string   { return p.PlayerID }
func (p *SecondChanceUsed) RoundNumber() int { return p.Round }

// Reasons a round can end.
const (
	ReasonAllDone       = "all_done"
	ReasonDeckExhausted = "deck_exhausted"
)

// RoundEnded records the banked round scores and the round winners.
type RoundEnded struct {
	Round   int            `toml:"round" json:"round"`
	Reason  string         `toml:"reason" json:"reason"`
	Scores  map[string]int `toml:"scores" json:"scores"`
	Winners []string       `toml:"winners" json:"winners"`
}

func (*RoundEnded) Kind() Kind         { return KindRoundEnded }
func (p *RoundEnded) RoundNumber() int { return p.Round }

// GameEnded records the winner and the final cumulative scores.
type GameEnded struct {
	Round  int            `toml:"round" json:"round"`
	Winner string         `toml:"winner" json:"winner"`
	Scores map[string]int `toml:"scores" json:"scores"`
}

func (*GameEnded) Kind() Kind         { return KindGameEnded }
func (p *GameEnded) RoundNumber() int { return p.Round }
