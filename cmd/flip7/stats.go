package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/render"
	"github.com/lox/flip7/internal/statistics"
	"github.com/lox/flip7/internal/store"
)

// StatsCmd reports on completed games in storage.
type StatsCmd struct {
	Game   string `help:"Show statistics and an event breakdown for one game"`
	Player string `help:"Show statistics for one player across all games"`
}

func (c *StatsCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()

	if c.Game != "" {
		state, events, err := s.Load(ctx, c.Game)
		if err != nil {
			return err
		}
		if err := printGameStats(state); err != nil {
			return err
		}
		printInsights(state, statistics.AnalyzeEvents(events))
		return nil
	}

	games, err := store.LoadCompleted(ctx, s)
	if err != nil {
		if len(games) == 0 {
			return err
		}
		env.logger.Warn().Err(err).Msg("Skipped games that failed to load")
	}

	if c.Player != "" {
		p := statistics.ForPlayer(c.Player, games)
		if p.GamesPlayed == 0 {
			return fmt.Errorf("no completed games for player %q", c.Player)
		}
		fmt.Fprint(os.Stdout, render.Leaderboard([]statistics.PlayerStatistics{p}))
		return nil
	}

	fmt.Fprint(os.Stdout, render.Historical(statistics.Historical(games)))
	fmt.Fprintln(os.Stdout)
	fmt.Fprint(os.Stdout, render.Leaderboard(statistics.Leaderboard(games)))
	return nil
}

func printGameStats(state *game.GameState) error {
	gs, err := statistics.ForGame(state)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, render.GameStats(gs))
	return nil
}

func printInsights(state *game.GameState, in statistics.EventInsights) {
	fmt.Fprintf(os.Stdout, "Events: %d (%d cards: %d drawn, %d logged; %d second chances; %d deck exhaustions)\n",
		in.TotalEvents, in.CardsDealt, in.CardsDrawn, in.CardsLogged, in.SecondChancesUsed, in.DeckExhaustions)

	kinds := make([]eventlog.Kind, 0, len(in.ByKind))
	for k := range in.ByKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(os.Stdout, "  %-20s %d\n", k, in.ByKind[k])
	}
	for _, p := range state.Players {
		fmt.Fprintf(os.Stdout, "  %-20s %d\n", p.Name, in.PlayerActions[p.ID])
	}
}
