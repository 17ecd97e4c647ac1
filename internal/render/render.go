// Package render draws games, event logs and statistics for the terminal.
package render

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/simulator"
	"github.com/lox/flip7/internal/statistics"
	"github.com/lox/flip7/internal/store"
)

const timeLayout = "2006-01-02 15:04"

// Card styles a single card by kind.
func Card(c deck.Card) string {
	switch c.Kind() {
	case deck.Modifier:
		return ModifierCardStyle.Render(c.String())
	case deck.Action:
		return ActionCardStyle.Render(c.String())
	default:
		return NumberCardStyle.Render(c.String())
	}
}

// Hand renders cards separated by spaces, or a dash when empty.
func Hand(cards []deck.Card) string {
	if len(cards) == 0 {
		return InfoStyle.Render("-")
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = Card(c)
	}
	return strings.Join(parts, " ")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return SectionStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func status(p *game.PlayerState) string {
	switch p.Status {
	case game.Busted:
		return ErrorStyle.Render("busted")
	case game.Frozen:
		return WarningStyle.Render("frozen")
	case game.Stayed:
		return SuccessStyle.Render("stayed")
	}
	s := "active"
	if p.ForcedDraws > 0 {
		s += fmt.Sprintf(" (%d forced)", p.ForcedDraws)
	}
	if p.Unresolved() {
		s += " (duplicate)"
	}
	return s
}

// Game renders the scoreboard and the latest round.
func Game(state *game.GameState) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Flip 7 · " + state.ID))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Created " + state.CreatedAt.Local().Format(timeLayout)))
	b.WriteString("\n\n")

	scores := newTable("#", "Player", "Score")
	for i, s := range state.Standings() {
		name := s.Name
		if state.Complete && s.ID == state.Winner {
			name = SuccessStyle.Render(name + " ★")
		}
		scores.Row(strconv.Itoa(i+1), name, strconv.Itoa(s.Score))
	}
	b.WriteString(scores.String())
	b.WriteString("\n")

	if state.Complete {
		if winner, ok := state.Player(state.Winner); ok {
			fmt.Fprintf(&b, "%s after %d rounds\n", SuccessStyle.Render(winner.Name+" wins"), len(state.Rounds))
		}
		return b.String()
	}

	r := state.LastRound()
	if r == nil {
		b.WriteString(InfoStyle.Render("No rounds played yet"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(Round(r))
	return b.String()
}

// Round renders every player's hand in a round.
func Round(r *game.RoundState) string {
	var b strings.Builder
	title := fmt.Sprintf("Round %d", r.Number)
	if r.Complete {
		title += " (complete)"
	}
	b.WriteString(SectionStyle.Render(title))
	b.WriteString("\n")

	hands := newTable("Player", "Hand", "Status", "Score")
	for _, p := range r.InSeatOrder() {
		score := p.Breakdown().Final
		if !p.IsActive() {
			score = p.RoundScore
		}
		hands.Row(p.Name, Hand(p.Hand), status(p), strconv.Itoa(score))
	}
	b.WriteString(hands.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", InfoStyle.Render(fmt.Sprintf("Deck: %d left, %d discarded", r.Deck.Remaining(), r.Deck.Discarded())))
	return b.String()
}

// Events renders an event log, one line per event.
func Events(state *game.GameState, events []eventlog.Event) string {
	name := func(id string) string {
		if p, ok := state.Player(id); ok {
			return p.Name
		}
		return id
	}
	names := func(ids []string) string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = name(id)
		}
		return strings.Join(out, ", ")
	}

	var b strings.Builder
	for _, ev := range events {
		var line string
		switch p := ev.Payload.(type) {
		case *eventlog.GameStarted:
			seats := make([]string, len(p.Players))
			for i, s := range p.Players {
				seats[i] = s.Name
			}
			line = "game started with " + strings.Join(seats, ", ")
		case *eventlog.RoundStarted:
			line = fmt.Sprintf("round %d started", p.Round)
		case *eventlog.CardDealt:
			how := "logged"
			if p.Drawn {
				how = "drawn"
			}
			line = fmt.Sprintf("%s dealt %s (%s)", name(p.PlayerID), Card(p.Card), how)
		case *eventlog.PlayerStayed:
			line = fmt.Sprintf("%s stayed on %d", name(p.PlayerID), p.Score)
		case *eventlog.SecondChanceUsed:
			line = fmt.Sprintf("%s used a second chance on %s", name(p.PlayerID), Card(p.Card))
		case *eventlog.RoundEnded:
			line = fmt.Sprintf("round %d ended (%s), won by %s", p.Round, p.Reason, names(p.Winners))
		case *eventlog.GameEnded:
			line = SuccessStyle.Render(fmt.Sprintf("game won by %s", name(p.Winner)))
		default:
			line = ev.Kind.String()
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			InfoStyle.Render(fmt.Sprintf("%4d", ev.Seq)),
			InfoStyle.Render(ev.Timestamp.Local().Format(time.TimeOnly)),
			line)
	}
	return b.String()
}

// Summaries renders a list of stored games.
func Summaries(list []store.Summary) string {
	if len(list) == 0 {
		return InfoStyle.Render("No saved games") + "\n"
	}
	t := newTable("ID", "Created", "Players", "Rounds", "Status", "Winner")
	for _, s := range list {
		st := "in progress"
		if s.Complete {
			st = "complete"
		}
		t.Row(s.ID, s.CreatedAt.Local().Format(timeLayout), strings.Join(s.Players, ", "),
			strconv.Itoa(s.Rounds), st, s.Winner)
	}
	return t.String() + "\n"
}

// Leaderboard renders player statistics in the order given.
func Leaderboard(board []statistics.PlayerStatistics) string {
	if len(board) == 0 {
		return InfoStyle.Render("No completed games") + "\n"
	}
	t := newTable("#", "Player", "Games", "Wins", "Win %", "Avg/round", "Flip 7", "Bust %", "Best round")
	for i, p := range board {
		t.Row(strconv.Itoa(i+1), p.Name, strconv.Itoa(p.GamesPlayed), strconv.Itoa(p.GamesWon),
			fmt.Sprintf("%.1f", p.WinRate), fmt.Sprintf("%.1f", p.AverageRoundScore),
			strconv.Itoa(p.Flip7s), fmt.Sprintf("%.1f", p.BustRate), strconv.Itoa(p.HighestRoundScore))
	}
	return t.String() + "\n"
}

// Historical renders aggregate statistics across games.
func Historical(h statistics.HistoricalStatistics) string {
	var b strings.Builder
	b.WriteString(SectionStyle.Render("All games"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Games: %d, rounds: %d (%.1f per game)\n", h.Games, h.Rounds, h.AverageRoundsPerGame)
	fmt.Fprintf(&b, "Cards dealt: %d\n", h.CardsDealt)
	fmt.Fprintf(&b, "Flip 7s: %d (%.1f%% of hands), busts: %d (%.1f%%)\n", h.Flip7s, h.Flip7Rate, h.Busts, h.BustRate)
	if h.MostCommonWinner != "" {
		fmt.Fprintf(&b, "Most wins: %s, highest score: %d\n", h.MostCommonWinner, h.HighestScore)
	}
	if h.RoundScores.Count > 0 {
		rs := &h.RoundScores
		fmt.Fprintf(&b, "Round score: mean %.1f, median %.1f, stddev %.1f, P90 %.0f\n",
			rs.Mean(), rs.Median(), rs.StdDev(), rs.Percentile(0.9))
	}
	return b.String()
}

// GameStats renders statistics for a single game.
func GameStats(g statistics.GameStatistics) string {
	var b strings.Builder
	b.WriteString(SectionStyle.Render("Game " + g.GameID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Winner: %s with %d after %d rounds\n", g.Winner, g.WinnerScore, g.Rounds)
	fmt.Fprintf(&b, "Cards dealt: %d, Flip 7s: %d, busts: %d, freezes: %d\n", g.CardsDealt, g.Flip7s, g.Busts, g.Freezes)
	fmt.Fprintf(&b, "Average round score: %.1f\n", g.AverageRoundScore)

	faces := make([]string, 0, len(g.CardFrequency))
	for face := range g.CardFrequency {
		faces = append(faces, face)
	}
	slices.SortFunc(faces, func(x, y string) int {
		if c := g.CardFrequency[y] - g.CardFrequency[x]; c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})
	if len(faces) > 5 {
		faces = faces[:5]
	}
	parts := make([]string, len(faces))
	for i, f := range faces {
		parts[i] = fmt.Sprintf("%s×%d", f, g.CardFrequency[f])
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "Most dealt: %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}

// Simulation renders per-strategy results of a simulation run.
func Simulation(results *simulator.Results) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Simulation · %d games · seed %d", len(results.Games), results.Seed)))
	b.WriteString("\n")

	t := newTable("Strategy", "Games", "Wins", "Win %", "Avg score", "Median", "Avg rounds", "Flip 7", "Busts")
	for _, st := range results.Strategies {
		t.Row(st.Strategy, strconv.Itoa(st.Games), strconv.Itoa(st.Wins), fmt.Sprintf("%.1f", st.WinRate),
			fmt.Sprintf("%.1f", st.AverageScore), fmt.Sprintf("%.0f", st.Scores.Median()),
			fmt.Sprintf("%.1f", st.AverageRounds), strconv.Itoa(st.Flip7s), strconv.Itoa(st.Busts))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
