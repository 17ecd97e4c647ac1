package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/render"
)

// ReplayCmd folds a stored event log from scratch and checks it against the
// stored state.
type ReplayCmd struct {
	ID    string `arg:"" help:"Game ID"`
	Quiet bool   `short:"q" help:"Only report whether the log reproduces the state"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	stored, events, err := s.Load(context.Background(), c.ID)
	if err != nil {
		return err
	}
	replayed, err := game.Replay(events)
	if err != nil {
		return err
	}

	if !c.Quiet {
		fmt.Fprint(os.Stdout, render.Events(replayed, events))
		fmt.Fprintln(os.Stdout)
		fmt.Fprint(os.Stdout, render.Game(replayed))
	}

	if diff := game.Diff(stored, replayed); diff != "" {
		return gameerr.New(gameerr.CodeStateDiverged, "stored state for game %s does not match its event log:\n%s", c.ID, diff)
	}
	env.logger.Debug().Str("game_id", c.ID).Int("events", len(events)).Msg("Replay matches stored state")
	fmt.Fprintln(os.Stdout, render.SuccessStyle.Render(fmt.Sprintf("%d events replayed, state matches", len(events))))
	return nil
}
