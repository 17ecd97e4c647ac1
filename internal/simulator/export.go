package simulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader names the columns written by WriteCSV.
var csvHeader = []string{
	"game", "seed", "game_id", "rounds", "winner", "winner_strategy",
	"player", "strategy", "seat", "final_score", "rounds_won",
	"flip7s", "busts", "cards_drawn", "avg_round_score",
}

// WriteCSV writes one row per player per game.
func WriteCSV(w io.Writer, results *Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, g := range results.Games {
		for _, p := range g.Players {
			row := []string{
				strconv.Itoa(g.Index + 1),
				strconv.FormatInt(g.Seed, 10),
				g.GameID,
				strconv.Itoa(g.Rounds),
				g.Winner,
				g.WinnerStrategy,
				p.Name,
				p.Strategy,
				strconv.Itoa(p.Seat),
				strconv.Itoa(p.FinalScore),
				strconv.Itoa(p.RoundsWon),
				strconv.Itoa(p.Flip7s),
				strconv.Itoa(p.Busts),
				strconv.Itoa(p.CardsDrawn),
				strconv.FormatFloat(p.AverageRoundScore, 'f', 2, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// PrintSummary prints a plain-text summary of simulation results
func PrintSummary(w io.Writer, results *Results) {
	fmt.Fprintf(w, "\n=== SIMULATION RESULTS (seed %d) ===\n", results.Seed)
	fmt.Fprintf(w, "Games played: %d\n", len(results.Games))

	for _, st := range results.Strategies {
		low, high := st.Scores.ConfidenceInterval95()
		fmt.Fprintf(w, "\n%s\n", st.Strategy)
		fmt.Fprintf(w, "  Wins: %d/%d (%.1f%%)\n", st.Wins, st.Games, st.WinRate)
		fmt.Fprintf(w, "  Final score: mean %.1f, median %.1f, stddev %.1f, 95%% CI [%.1f, %.1f]\n",
			st.AverageScore, st.Scores.Median(), st.Scores.StdDev(), low, high)
		fmt.Fprintf(w, "  Percentiles: P5=%.0f, P25=%.0f, P75=%.0f, P95=%.0f\n",
			st.Scores.Percentile(0.05), st.Scores.Percentile(0.25),
			st.Scores.Percentile(0.75), st.Scores.Percentile(0.95))
		fmt.Fprintf(w, "  Avg rounds: %.1f, Flip 7s: %d, Busts: %d\n", st.AverageRounds, st.Flip7s, st.Busts)
	}
}
