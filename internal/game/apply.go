package game

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/rules"
)

// Apply folds a single event into state and returns the resulting state. The
// input is not modified. Apply fails with the same error the engine would
// have returned had the command been issued against state.
func Apply(state *GameState, ev eventlog.Event) (*GameState, error) {
	return apply(state.Clone(), ev)
}

// apply folds ev into s in place. s may be left half updated on error, so
// callers always apply to a copy.
func apply(s *GameState, ev eventlog.Event) (*GameState, error) {
	switch p := ev.Payload.(type) {
	case *eventlog.GameStarted:
		return applyGameStarted(s, ev.Timestamp, p)
	case *eventlog.RoundStarted:
		return s, applyRoundStarted(s, ev.Timestamp, p)
	case *eventlog.CardDealt:
		return s, applyCardDealt(s, p)
	case *eventlog.PlayerStayed:
		return s, applyPlayerStayed(s, p)
	case *eventlog.SecondChanceUsed:
		return s, applySecondChanceUsed(s, p)
	case *eventlog.RoundEnded:
		return s, applyRoundEnded(s, ev.Timestamp, p)
	case *eventlog.GameEnded:
		return s, applyGameEnded(s, ev.Timestamp, p)
	default:
		return nil, gameerr.New(gameerr.CodeCorruptLog, "unsupported payload %T", ev.Payload)
	}
}

func applyGameStarted(s *GameState, at time.Time, p *eventlog.GameStarted) (*GameState, error) {
	if s != nil {
		return nil, gameerr.New(gameerr.CodeGameAlreadyStarted, "game %s has already started", s.ID)
	}
	if err := validateSeats(p.Players); err != nil {
		return nil, err
	}

	state := &GameState{
		ID:        p.GameID,
		CreatedAt: at,
		Players:   make([]Player, len(p.Players)),
		Scores:    make(map[string]int, len(p.Players)),
	}
	for i, seat := range p.Players {
		state.Players[i] = Player{ID: seat.ID, Name: seat.Name}
		state.Scores[seat.ID] = 0
	}
	return state, nil
}

func validateSeats(seats []eventlog.Seat) error {
	if len(seats) < 2 {
		return gameerr.New(gameerr.CodeInsufficientPlayers, "at least 2 players are required, got %d", len(seats))
	}
	names := make(map[string]bool, len(seats))
	for _, seat := range seats {
		if strings.TrimSpace(seat.Name) == "" {
			return gameerr.New(gameerr.CodeInsufficientPlayers, "player names must not be empty")
		}
		names[strings.ToLower(seat.Name)] = true
	}
	if len(names) < 2 {
		return gameerr.New(gameerr.CodeInsufficientPlayers, "at least 2 distinct players are required, got %d", len(names))
	}

	seen := make(map[string]bool, len(seats))
	ids := make(map[string]bool, len(seats))
	for _, seat := range seats {
		key := strings.ToLower(seat.Name)
		if seen[key] {
			return gameerr.New(gameerr.CodeDuplicatePlayer, "player %q is seated twice", seat.Name)
		}
		seen[key] = true
		if seat.ID == "" || ids[seat.ID] {
			return gameerr.New(gameerr.CodeDuplicatePlayer, "player %q has a missing or repeated ID", seat.Name)
		}
		ids[seat.ID] = true
	}
	return nil
}

func checkCanStartRound(s *GameState) error {
	if s == nil {
		return gameerr.New(gameerr.CodeGameNotStarted, "no game has been started")
	}
	if s.Complete {
		return gameerr.New(gameerr.CodeGameComplete, "game %s is complete; %s won", s.ID, s.Winner)
	}
	if r := s.CurrentRound(); r != nil {
		return gameerr.New(gameerr.CodeRoundInProgress, "round %d is still in progress", r.Number)
	}
	return nil
}

func applyRoundStarted(s *GameState, at time.Time, p *eventlog.RoundStarted) error {
	if err := checkCanStartRound(s); err != nil {
		return err
	}
	if want := len(s.Rounds) + 1; p.Round != want {
		return gameerr.New(gameerr.CodeCorruptLog, "round %d started, expected round %d", p.Round, want)
	}

	r := &RoundState{
		Number:    p.Round,
		Seed:      p.Seed,
		Deck:      deck.New(p.Seed),
		Players:   make(map[string]*PlayerState, len(s.Players)),
		Seats:     make([]string, 0, len(s.Players)),
		StartedAt: at,
	}
	for _, player := range s.Players {
		r.Players[player.ID] = &PlayerState{
			ID:     player.ID,
			Name:   player.Name,
			Status: Active,
			Total:  s.Scores[player.ID],
		}
		r.Seats = append(r.Seats, player.ID)
	}
	s.Rounds = append(s.Rounds, r)
	return nil
}

// activeRound returns the round in progress.
func activeRound(s *GameState) (*RoundState, error) {
	if s == nil {
		return nil, gameerr.New(gameerr.CodeGameNotStarted, "no game has been started")
	}
	if s.Complete {
		return nil, gameerr.New(gameerr.CodeGameComplete, "game %s is complete; %s won", s.ID, s.Winner)
	}
	r := s.CurrentRound()
	if r == nil {
		return nil, gameerr.New(gameerr.CodeNoActiveRound, "no round is in progress")
	}
	return r, nil
}

func roundFor(s *GameState, round int) (*RoundState, error) {
	r, err := activeRound(s)
	if err != nil {
		return nil, err
	}
	if round != r.Number {
		return nil, gameerr.New(gameerr.CodeCorruptLog, "event for round %d during round %d", round, r.Number)
	}
	return r, nil
}

func activePlayer(r *RoundState, playerID string) (*PlayerState, error) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, gameerr.New(gameerr.CodeUnknownPlayer, "unknown player %q", playerID)
	}
	if !p.IsActive() {
		return nil, gameerr.New(gameerr.CodePlayerNotActive, "%s has already %s", p.Name, p.Status)
	}
	return p, nil
}

func checkDeal(r *RoundState, playerID string) (*PlayerState, error) {
	p, err := activePlayer(r, playerID)
	if err != nil {
		return nil, err
	}
	if p.Unresolved() {
		return nil, gameerr.New(gameerr.CodeDuplicateUnresolved, "%s must use a second chance on their duplicate first", p.Name)
	}
	return p, nil
}

func checkStay(r *RoundState, playerID string) (*PlayerState, error) {
	p, err := activePlayer(r, playerID)
	if err != nil {
		return nil, err
	}
	if p.ForcedDraws > 0 {
		return nil, gameerr.New(gameerr.CodeForcedDrawIncomplete, "%s must take %d more card(s) before staying", p.Name, p.ForcedDraws)
	}
	if p.Unresolved() {
		return nil, gameerr.New(gameerr.CodeDuplicateUnresolved, "%s must use a second chance on their duplicate first", p.Name)
	}
	return p, nil
}

func applyCardDealt(s *GameState, p *eventlog.CardDealt) error {
	r, err := roundFor(s, p.Round)
	if err != nil {
		return err
	}
	player, err := checkDeal(r, p.PlayerID)
	if err != nil {
		return err
	}
	if !p.Card.IsValid() {
		return gameerr.New(gameerr.CodeInvalidCard, "invalid card")
	}

	if p.Drawn {
		card, err := r.Deck.Draw()
		if err != nil {
			return err
		}
		if card != p.Card {
			return gameerr.New(gameerr.CodeCorruptLog, "deck yields %s but %s was recorded", card, p.Card)
		}
	} else if err := r.Deck.Take(p.Card); err != nil {
		return err
	}

	deal(player, p.Card)
	if player.Status == Frozen {
		bank(s, player)
	}
	return nil
}

// deal adds card to the player's hand and applies its effect.
func deal(p *PlayerState, card deck.Card) {
	p.Hand = append(p.Hand, card)

	switch rules.EffectOf(card) {
	case rules.EffectFreeze:
		p.Status = Frozen
		p.ForcedDraws = 0
		p.RoundScore = rules.Score(p.Hand).Final
	case rules.EffectFlipThree:
		p.ForcedDraws += rules.FlipThreeDraws
	case rules.EffectHold:
		p.consumeForcedDraw()
	case rules.EffectNone:
		if rules.IsBusted(p.Hand) {
			p.Status = Busted
			p.ForcedDraws = 0
			p.RoundScore = 0
			return
		}
		p.consumeForcedDraw()
	}
}

func (p *PlayerState) consumeForcedDraw() {
	if p.ForcedDraws > 0 {
		p.ForcedDraws--
	}
}

func applyPlayerStayed(s *GameState, p *eventlog.PlayerStayed) error {
	r, err := roundFor(s, p.Round)
	if err != nil {
		return err
	}
	player, err := checkStay(r, p.PlayerID)
	if err != nil {
		return err
	}
	score := rules.Score(player.Hand).Final
	if score != p.Score {
		return gameerr.New(gameerr.CodeCorruptLog, "%s stayed on %d but the hand scores %d", player.Name, p.Score, score)
	}
	player.Status = Stayed
	player.RoundScore = score
	bank(s, player)
	return nil
}

// bank adds the player's round score to their cumulative total.
func bank(s *GameState, p *PlayerState) {
	s.Scores[p.ID] += p.RoundScore
	p.Total = s.Scores[p.ID]
}

func applySecondChanceUsed(s *GameState, p *eventlog.SecondChanceUsed) error {
	r, err := roundFor(s, p.Round)
	if err != nil {
		return err
	}
	player, err := activePlayer(r, p.PlayerID)
	if err != nil {
		return err
	}
	hand, discarded, err := rules.ApplySecondChance(player.Hand, p.Card)
	if err != nil {
		return err
	}
	player.Hand = hand
	r.Deck.Discard(discarded...)
	return nil
}

// endReason reports why r may end, or PlayersStillActive.
func endReason(r *RoundState) (string, error) {
	if r.AllDone() {
		return eventlog.ReasonAllDone, nil
	}
	if r.Deck.Exhausted() {
		return eventlog.ReasonDeckExhausted, nil
	}
	return "", gameerr.New(gameerr.CodePlayersStillActive, "%d player(s) are still active", len(r.ActivePlayers()))
}

// settle stays every player still active when the deck runs out and returns
// them. Duplicates covered by a second chance are resolved first.
func settle(r *RoundState) []*PlayerState {
	var settled []*PlayerState
	for _, p := range r.InSeatOrder() {
		if !p.IsActive() {
			continue
		}
		hand, discarded := rules.Resolve(p.Hand)
		p.Hand = hand
		r.Deck.Discard(discarded...)
		p.Status = Stayed
		p.ForcedDraws = 0
		p.RoundScore = rules.Score(p.Hand).Final
		settled = append(settled, p)
	}
	return settled
}

// roundResult builds the RoundEnded payload for r without modifying it.
func roundResult(r *RoundState) (*eventlog.RoundEnded, error) {
	reason, err := endReason(r)
	if err != nil {
		return nil, err
	}
	settled := r.Clone()
	settle(settled)

	result := &eventlog.RoundEnded{
		Round:  r.Number,
		Reason: reason,
		Scores: make(map[string]int, len(settled.Players)),
	}
	best := -1
	for _, p := range settled.InSeatOrder() {
		result.Scores[p.ID] = p.RoundScore
		if p.Status == Busted {
			continue
		}
		switch {
		case p.RoundScore > best:
			best = p.RoundScore
			result.Winners = []string{p.ID}
		case p.RoundScore == best:
			result.Winners = append(result.Winners, p.ID)
		}
	}
	return result, nil
}

func applyRoundEnded(s *GameState, at time.Time, p *eventlog.RoundEnded) error {
	r, err := roundFor(s, p.Round)
	if err != nil {
		return err
	}
	want, err := roundResult(r)
	if err != nil {
		return err
	}
	if p.Reason != want.Reason || !maps.Equal(p.Scores, want.Scores) || !slices.Equal(p.Winners, want.Winners) {
		return gameerr.New(gameerr.CodeCorruptLog, "round %d result does not match the hands played", r.Number)
	}

	for _, player := range settle(r) {
		bank(s, player)
	}
	r.Complete = true
	r.EndReason = want.Reason
	r.Winners = want.Winners
	r.EndedAt = at
	return nil
}

// decideWinner returns the game winner once any player has reached the
// winning score: highest cumulative score, then highest score in the last
// round, then earliest seat.
func decideWinner(s *GameState) (string, bool) {
	reached := false
	for _, score := range s.Scores {
		if score >= rules.WinningScore {
			reached = true
			break
		}
	}
	if !reached {
		return "", false
	}

	last := s.LastRound()
	lastScore := func(id string) int {
		if last == nil {
			return 0
		}
		if p, ok := last.Players[id]; ok {
			return p.RoundScore
		}
		return 0
	}

	winner := ""
	for _, p := range s.Players {
		if winner == "" {
			winner = p.ID
			continue
		}
		switch {
		case s.Scores[p.ID] > s.Scores[winner]:
			winner = p.ID
		case s.Scores[p.ID] == s.Scores[winner] && lastScore(p.ID) > lastScore(winner):
			winner = p.ID
		}
	}
	return winner, true
}

func applyGameEnded(s *GameState, at time.Time, p *eventlog.GameEnded) error {
	if s == nil {
		return gameerr.New(gameerr.CodeGameNotStarted, "no game has been started")
	}
	if s.Complete {
		return gameerr.New(gameerr.CodeGameComplete, "game %s is already complete", s.ID)
	}
	if r := s.CurrentRound(); r != nil {
		return gameerr.New(gameerr.CodeRoundInProgress, "round %d is still in progress", r.Number)
	}
	winner, ok := decideWinner(s)
	if !ok {
		return gameerr.New(gameerr.CodeCorruptLog, "game ended before anyone reached %d", rules.WinningScore)
	}
	if p.Winner != winner || !maps.Equal(p.Scores, s.Scores) {
		return gameerr.New(gameerr.CodeCorruptLog, "recorded winner %q does not match %q", p.Winner, winner)
	}
	s.Complete = true
	s.Winner = winner
	s.CompletedAt = at
	return nil
}
