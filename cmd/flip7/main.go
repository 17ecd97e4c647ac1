package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/lox/flip7/cmd/flip7/shared"
	"github.com/lox/flip7/internal/config"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/store"
	"github.com/lox/flip7/internal/store/filestore"
	"github.com/lox/flip7/internal/store/sqlite"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config string `type:"path" default:"${config_path}" env:"FLIP7_CONFIG" help:"Path to the HCL config file"`
	Debug  bool   `help:"Enable debug logging"`
	JSON   bool   `name:"json" help:"Log as JSON"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Game     GameCmd          `cmd:"" help:"Play a game dealt from a physical or virtual deck"`
	Replay   ReplayCmd        `cmd:"" help:"Rebuild a saved game from its event log"`
	Stats    StatsCmd         `cmd:"" help:"Show statistics across saved games"`
	Simulate SimulateCmd      `cmd:"" help:"Play automated strategies against each other"`
}

// env is what a command needs to run: configuration, a logger and storage.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func (g *Globals) setup() (*env, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", g.Config, err)
	}

	level := shared.ParseLevel(cfg.Log.Level, g.Debug)
	logger := shared.SetupLogger(level)
	if g.JSON || cfg.Log.JSON {
		logger = shared.SetupStructuredLogger(level)
	}
	logger.Debug().Str("config", g.Config).Str("driver", cfg.Storage.Driver).Msg("Loaded configuration")
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) openStore() (store.Store, error) {
	path := e.cfg.StoragePath()
	if e.cfg.Storage.Driver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
		db, err := sqlite.Open(path, e.logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	dir, err := filestore.New(path, e.logger)
	if err != nil {
		return nil, err
	}
	return dir, nil
}

// describe prefixes domain errors with their kind and code.
func describe(err error) error {
	if code := gameerr.CodeOf(err); code != "" {
		return fmt.Errorf("%s/%s: %w", gameerr.KindOf(err), code, err)
	}
	return err
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("flip7"),
		kong.Description("Flip 7 scorekeeper, rules engine and simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     version,
			"config_path": config.DefaultPath(),
		},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flip7:", describe(err))
		os.Exit(1)
	}
}
