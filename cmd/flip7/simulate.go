package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"

	"github.com/lox/flip7/cmd/flip7/shared"
	"github.com/lox/flip7/internal/config"
	"github.com/lox/flip7/internal/fileutil"
	"github.com/lox/flip7/internal/render"
	"github.com/lox/flip7/internal/simulator"
)

// SimulateCmd plays the configured players against each other. Flags left at
// zero fall back to the simulation block of the config file.
type SimulateCmd struct {
	Games       int      `short:"n" help:"Number of games to simulate"`
	Parallelism int      `short:"p" help:"Games played at once (0 = number of CPUs)"`
	Seed        int64    `help:"Root seed for deterministic runs (0 for random)"`
	MaxRounds   int      `help:"Abandon a game after this many rounds (0 = default)"`
	Players     []string `short:"P" help:"Configured players to seat, by name (default all)"`
	CSV         string   `name:"csv" type:"path" help:"Write per-game results to a CSV file"`
	Save        bool     `help:"Save every simulated game to storage"`
	Quiet       bool     `short:"q" help:"Suppress progress output"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}

	players, err := c.seat(env.cfg)
	if err != nil {
		return err
	}
	sc := simulator.Config{
		Games:       c.Games,
		Parallelism: c.Parallelism,
		Seed:        c.Seed,
		MaxRounds:   c.MaxRounds,
		Players:     players,
		Logger:      progressLogger(c.Quiet, env.logger.GetLevel()),
	}
	if sc.Games == 0 {
		sc.Games = env.cfg.Simulation.Games
	}
	if sc.Parallelism == 0 {
		sc.Parallelism = env.cfg.Simulation.Parallelism
	}
	if sc.Seed == 0 {
		sc.Seed = env.cfg.Simulation.Seed
	}

	if c.Save {
		s, err := env.openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		sc.Saver = s
	}

	sim, err := simulator.New(sc)
	if err != nil {
		return err
	}
	env.logger.Info().
		Int("games", sc.Games).
		Int64("seed", sim.Seed()).
		Int("players", len(players)).
		Msg("Starting simulation")

	ctx, stop := shared.SetupSignalHandler(env.logger)
	defer stop()

	results, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, render.Simulation(results))

	if c.CSV != "" {
		err := fileutil.WriteAtomic(c.CSV, 0o644, func(w io.Writer) error {
			return simulator.WriteCSV(w, results)
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", c.CSV, err)
		}
		env.logger.Info().Str("path", c.CSV).Int("games", len(results.Games)).Msg("Wrote results")
	}
	return nil
}

// seat picks the named players from the config, or all of them.
func (c *SimulateCmd) seat(cfg *config.Config) ([]simulator.PlayerConfig, error) {
	if len(c.Players) == 0 {
		return cfg.SimulationPlayers(), nil
	}
	out := make([]simulator.PlayerConfig, 0, len(c.Players))
	for _, name := range c.Players {
		p := cfg.GetPlayerByName(strings.TrimSpace(name))
		if p == nil {
			return nil, fmt.Errorf("no player %q in config", name)
		}
		out = append(out, simulator.PlayerConfig{Name: p.Name, Strategy: p.StrategyConfig()})
	}
	return out, nil
}

// progressLogger maps the zerolog level onto the simulator's progress logger.
func progressLogger(quiet bool, level zerolog.Level) *log.Logger {
	if quiet {
		return log.New(io.Discard)
	}
	opts := log.Options{ReportTimestamp: true, Level: log.InfoLevel}
	switch {
	case level <= zerolog.DebugLevel:
		opts.Level = log.DebugLevel
	case level >= zerolog.WarnLevel:
		opts.Level = log.WarnLevel
	}
	return log.NewWithOptions(os.Stderr, opts)
}
