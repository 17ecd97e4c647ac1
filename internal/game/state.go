package game

import (
	"maps"
	"slices"
	"time"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/rules"
)

// Status is where a player stands within a round.
type Status string

const (
	Active Status = "active"
	Stayed Status = "stayed"
	Busted Status = "busted"
	Frozen Status = "frozen"
)

// String returns the string representation of a status
func (s Status) String() string {
	return string(s)
}

// Player is a seated player.
type Player struct {
	ID   string `toml:"id" json:"id"`
	Name string `toml:"name" json:"name"`
}

// PlayerState is one player's position in a round.
type PlayerState struct {
	ID          string      `toml:"id" json:"id"`
	Name        string      `toml:"name" json:"name"`
	Hand        []deck.Card `toml:"hand" json:"hand"`
	Status      Status      `toml:"status" json:"status"`
	ForcedDraws int         `toml:"forced_draws" json:"forced_draws"`
	RoundScore  int         `toml:"round_score" json:"round_score"`
	// Total is the banked score across rounds. It includes this round's
	// score as soon as the player stays or freezes.
	Total int `toml:"total" json:"total"`
}

// IsActive reports whether the player can still be dealt cards.
func (p *PlayerState) IsActive() bool {
	return p.Status == Active
}

// SecondChances returns the number of unused second chance cards held.
func (p *PlayerState) SecondChances() int {
	return rules.SecondChances(p.Hand)
}

// Unresolved reports whether the player holds a duplicate that must be
// cancelled with a second chance before anything else.
func (p *PlayerState) Unresolved() bool {
	return rules.Unresolved(p.Hand)
}

// Breakdown scores the current hand.
func (p *PlayerState) Breakdown() rules.Breakdown {
	return rules.Score(p.Hand)
}

// Clone returns a deep copy of the player state.
func (p *PlayerState) Clone() *PlayerState {
	c := *p
	c.Hand = slices.Clone(p.Hand)
	return &c
}

// RoundState is a single round. It is frozen once Complete is set.
type RoundState struct {
	Number    int                     `toml:"number" json:"number"`
	Seed      int64                   `toml:"seed" json:"seed"`
	Deck      *deck.Deck              `toml:"deck" json:"deck"`
	Players   map[string]*PlayerState `toml:"players" json:"players"`
	Seats     []string                `toml:"seats" json:"seats"`
	Complete  bool                    `toml:"complete" json:"complete"`
	EndReason string                  `toml:"end_reason,omitempty" json:"end_reason,omitempty"`
	Winners   []string                `toml:"winners,omitempty" json:"winners,omitempty"`
	StartedAt time.Time               `toml:"started_at" json:"started_at"`
	EndedAt   time.Time               `toml:"ended_at" json:"ended_at"`
}

// Player returns the state of playerID in this round.
func (r *RoundState) Player(playerID string) (*PlayerState, bool) {
	p, ok := r.Players[playerID]
	return p, ok
}

// InSeatOrder returns the player states in seat order.
func (r *RoundState) InSeatOrder() []*PlayerState {
	out := make([]*PlayerState, 0, len(r.Seats))
	for _, id := range r.Seats {
		if p, ok := r.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// ActivePlayers returns the IDs of players still active, in seat order.
func (r *RoundState) ActivePlayers() []string {
	var ids []string
	for _, p := range r.InSeatOrder() {
		if p.IsActive() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// AllDone reports whether every player has stayed, busted or frozen.
func (r *RoundState) AllDone() bool {
	return len(r.ActivePlayers()) == 0
}

// CardsInHand counts the cards held by every player.
func (r *RoundState) CardsInHand() int {
	n := 0
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	return n
}

// Clone returns a deep copy of the round.
func (r *RoundState) Clone() *RoundState {
	c := *r
	c.Deck = r.Deck.Clone()
	c.Players = make(map[string]*PlayerState, len(r.Players))
	for id, p := range r.Players {
		c.Players[id] = p.Clone()
	}
	c.Seats = slices.Clone(r.Seats)
	c.Winners = slices.Clone(r.Winners)
	return &c
}

// GameState is the whole game as folded from its event log.
type GameState struct {
	ID          string         `toml:"id" json:"id"`
	CreatedAt   time.Time      `toml:"created_at" json:"created_at"`
	Players     []Player       `toml:"players" json:"players"`
	Rounds      []*RoundState  `toml:"rounds" json:"rounds"`
	Scores      map[string]int `toml:"scores" json:"scores"`
	Winner      string         `toml:"winner,omitempty" json:"winner,omitempty"`
	Complete    bool           `toml:"complete" json:"complete"`
	CompletedAt time.Time      `toml:"completed_at" json:"completed_at"`
}

// CurrentRound returns the round in progress, or nil between rounds.
func (s *GameState) CurrentRound() *RoundState {
	r := s.LastRound()
	if r == nil || r.Complete {
		return nil
	}
	return r
}

// LastRound returns the most recent round, complete or not.
func (s *GameState) LastRound() *RoundState {
	if len(s.Rounds) == 0 {
		return nil
	}
	return s.Rounds[len(s.Rounds)-1]
}

// Player looks up a seated player by ID.
func (s *GameState) Player(playerID string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerByName looks up a seated player by name.
func (s *GameState) PlayerByName(name string) (Player, bool) {
	for _, p := range s.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// Seat returns the seat index of playerID, or -1.
func (s *GameState) Seat(playerID string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == playerID })
}

// Standing is a player's place in the game.
type Standing struct {
	Player
	Score int
}

// Standings returns the players ordered by cumulative score, ties broken by
// seat.
func (s *GameState) Standings() []Standing {
	out := make([]Standing, len(s.Players))
	for i, p := range s.Players {
		out[i] = Standing{Player: p, Score: s.Scores[p.ID]}
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		return b.Score - a.Score
	})
	return out
}

// Clone returns a deep copy of the game state. Cloning nil returns nil.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = slices.Clone(s.Players)
	c.Scores = maps.Clone(s.Scores)
	c.Rounds = make([]*RoundState, len(s.Rounds))
	for i, r := range s.Rounds {
		c.Rounds[i] = r.Clone()
	}
	return &c
}
