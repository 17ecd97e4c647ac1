package statistics

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/rules"
)

// GameStatistics summarises one completed game
type GameStatistics struct {
	GameID            string
	Rounds            int
	CardsDealt        int // Cards held at the end of each round
	Flip7s            int
	Busts             int
	Freezes           int
	Winner            string // Winner's name
	WinnerScore       int
	AverageRoundScore float64
	CardFrequency     map[string]int
	RoundScores       Statistics // Every player's score in every round
}

// PlayerStatistics summarises one player, matched by name, across games
type PlayerStatistics struct {
	Name              string
	GamesPlayed       int
	GamesWon          int
	WinRate           float64 // Percentage, 0-100
	Rounds            int
	RoundsWon         int
	AverageRoundScore float64
	AverageGameScore  float64
	Flip7s            int
	Flip7Rate         float64 // Percentage of rounds
	Busts             int
	BustRate          float64 // Percentage of rounds
	HighestRoundScore int
	HighestGameScore  int
	RoundScores       Statistics
}

// HistoricalStatistics aggregates every completed game
type HistoricalStatistics struct {
	Games                int
	Rounds               int
	PlayerRounds         int
	CardsDealt           int
	AverageRoundsPerGame float64
	Flip7s               int
	Flip7Rate            float64 // Percentage of player rounds
	Busts                int
	BustRate             float64 // Percentage of player rounds
	MostCommonWinner     string
	HighestScore         int
	CardDistribution     map[string]int
	RoundScores          Statistics
}

// ForGame computes statistics for a completed game.
func ForGame(state *game.GameState) (GameStatistics, error) {
	if state == nil {
		return GameStatistics{}, fmt.Errorf("game state is nil")
	}
	if !state.Complete {
		return GameStatistics{}, fmt.Errorf("game %s is not complete", state.ID)
	}

	stats := GameStatistics{
		GameID:        state.ID,
		Rounds:        len(state.Rounds),
		CardFrequency: make(map[string]int),
	}
	for _, r := range state.Rounds {
		for _, p := range r.InSeatOrder() {
			stats.RoundScores.AddInt(p.RoundScore)
			stats.CardsDealt += len(p.Hand)
			countCards(stats.CardFrequency, p.Hand)
			switch {
			case p.Status == game.Busted:
				stats.Busts++
			case rules.IsFlip7(p.Hand):
				stats.Flip7s++
			}
			if p.Status == game.Frozen {
				stats.Freezes++
			}
		}
	}
	stats.AverageRoundScore = stats.RoundScores.Mean()

	if winner, ok := state.Player(state.Winner); ok {
		stats.Winner = winner.Name
		stats.WinnerScore = state.Scores[winner.ID]
	}
	return stats, nil
}

// ForPlayer computes statistics for the player called name across the
// completed games in games.
func ForPlayer(name string, games []*game.GameState) PlayerStatistics {
	stats := PlayerStatistics{Name: name}
	var gameScores Statistics

	for _, g := range games {
		if g == nil || !g.Complete {
			continue
		}
		player, ok := g.PlayerByName(name)
		if !ok {
			continue
		}

		stats.GamesPlayed++
		if g.Winner == player.ID {
			stats.GamesWon++
		}

		for _, r := range g.Rounds {
			p, ok := r.Player(player.ID)
			if !ok {
				continue
			}
			stats.Rounds++
			stats.RoundScores.AddInt(p.RoundScore)
			if slices.Contains(r.Winners, player.ID) {
				stats.RoundsWon++
			}
			switch {
			case p.Status == game.Busted:
				stats.Busts++
			case rules.IsFlip7(p.Hand):
				stats.Flip7s++
			}
			stats.HighestRoundScore = max(stats.HighestRoundScore, p.RoundScore)
		}

		final := g.Scores[player.ID]
		gameScores.AddInt(final)
		stats.HighestGameScore = max(stats.HighestGameScore, final)
	}

	if stats.GamesPlayed > 0 {
		stats.WinRate = percent(stats.GamesWon, stats.GamesPlayed)
	}
	if stats.Rounds > 0 {
		stats.AverageRoundScore = stats.RoundScores.Mean()
		stats.Flip7Rate = percent(stats.Flip7s, stats.Rounds)
		stats.BustRate = percent(stats.Busts, stats.Rounds)
	}
	stats.AverageGameScore = gameScores.Mean()
	return stats
}

// Historical aggregates every completed game in games.
func Historical(games []*game.GameState) HistoricalStatistics {
	stats := HistoricalStatistics{CardDistribution: make(map[string]int)}
	wins := make(map[string]int)

	for _, g := range games {
		if g == nil || !g.Complete {
			continue
		}
		stats.Games++
		stats.Rounds += len(g.Rounds)
		if winner, ok := g.Player(g.Winner); ok {
			wins[winner.Name]++
		}
		for _, score := range g.Scores {
			stats.HighestScore = max(stats.HighestScore, score)
		}

		for _, r := range g.Rounds {
			for _, p := range r.InSeatOrder() {
				stats.PlayerRounds++
				stats.CardsDealt += len(p.Hand)
				stats.RoundScores.AddInt(p.RoundScore)
				countCards(stats.CardDistribution, p.Hand)
				switch {
				case p.Status == game.Busted:
					stats.Busts++
				case rules.IsFlip7(p.Hand):
					stats.Flip7s++
				}
			}
		}
	}

	if stats.Games == 0 {
		return stats
	}
	stats.AverageRoundsPerGame = float64(stats.Rounds) / float64(stats.Games)
	if stats.PlayerRounds > 0 {
		stats.Flip7Rate = percent(stats.Flip7s, stats.PlayerRounds)
		stats.BustRate = percent(stats.Busts, stats.PlayerRounds)
	}

	best := 0
	for name, n := range wins {
		if n > best || (n == best && name < stats.MostCommonWinner) {
			best = n
			stats.MostCommonWinner = name
		}
	}
	return stats
}

// Leaderboard returns statistics for every player of a completed game,
// ordered by games won, then win rate, then name.
func Leaderboard(games []*game.GameState) []PlayerStatistics {
	var names []string
	for _, g := range games {
		if g == nil || !g.Complete {
			continue
		}
		for _, p := range g.Players {
			if !slices.Contains(names, p.Name) {
				names = append(names, p.Name)
			}
		}
	}

	board := make([]PlayerStatistics, 0, len(names))
	for _, name := range names {
		board = append(board, ForPlayer(name, games))
	}
	slices.SortFunc(board, func(a, b PlayerStatistics) int {
		if c := cmp.Compare(b.GamesWon, a.GamesWon); c != 0 {
			return c
		}
		if c := cmp.Compare(b.WinRate, a.WinRate); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return board
}

func countCards(into map[string]int, hand []deck.Card) {
	for _, c := range hand {
		into[c.String()]++
	}
}

func percent(n, of int) float64 {
	return float64(n) / float64(of) * 100
}
