// Package config loads the flip7 HCL configuration file and applies
// environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/lox/flip7/internal/simulator"
)

// Storage drivers
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config represents the complete configuration
type Config struct {
	Storage    *StorageConfig    `hcl:"storage,block"`
	Log        *LogConfig        `hcl:"log,block"`
	Simulation *SimulationConfig `hcl:"simulation,block"`
	Players    []PlayerConfig    `hcl:"player,block"`
}

// StorageConfig selects where games are kept
type StorageConfig struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
}

// LogConfig controls log output
type LogConfig struct {
	Level string `hcl:"level,optional"`
	JSON  bool   `hcl:"json,optional"`
}

// SimulationConfig holds defaults for the simulate command
type SimulationConfig struct {
	Games       int   `hcl:"games,optional"`
	Parallelism int   `hcl:"parallelism,optional"`
	Seed        int64 `hcl:"seed,optional"`
}

// PlayerConfig defines a simulated player
type PlayerConfig struct {
	Name           string  `hcl:"name,label"`
	Strategy       string  `hcl:"strategy"`
	Target         int     `hcl:"target,optional"`
	HitProbability float64 `hcl:"hit_probability,optional"`
}

// overrides are read from the environment after the file.
type overrides struct {
	StorageDriver string `env:"FLIP7_STORAGE_DRIVER"`
	StoragePath   string `env:"FLIP7_STORAGE_PATH"`
	LogLevel      string `env:"FLIP7_LOG_LEVEL"`
	LogJSON       *bool  `env:"FLIP7_LOG_JSON"`
	Games         *int   `env:"FLIP7_SIM_GAMES"`
	Parallelism   *int   `env:"FLIP7_SIM_PARALLELISM"`
	Seed          *int64 `env:"FLIP7_SIM_SEED"`
}

// DefaultDir is where games and the default config live, ~/.flip7.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flip7"
	}
	return filepath.Join(home, ".flip7")
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.hcl")
}

// Default returns the default configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func defaultPlayers() []PlayerConfig {
	return []PlayerConfig{
		{Name: "cautious", Strategy: simulator.StrategyThreshold, Target: 15},
		{Name: "steady", Strategy: simulator.StrategyThreshold, Target: 25},
		{Name: "bold", Strategy: simulator.StrategyThreshold, Target: 40},
		{Name: "coin", Strategy: simulator.StrategyRandom, HitProbability: 0.5},
	}
}

// Load reads configuration from an HCL file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.applyEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source, applies defaults and environment overrides.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Simulation == nil {
		c.Simulation = &SimulationConfig{}
	}
	if c.Simulation.Games == 0 {
		c.Simulation.Games = 1000
	}
	if len(c.Players) == 0 {
		c.Players = defaultPlayers()
	}
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.StorageDriver != "" {
		c.Storage.Driver = o.StorageDriver
	}
	if o.StoragePath != "" {
		c.Storage.Path = o.StoragePath
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogJSON != nil {
		c.Log.JSON = *o.LogJSON
	}
	if o.Games != nil {
		c.Simulation.Games = *o.Games
	}
	if o.Parallelism != nil {
		c.Simulation.Parallelism = *o.Parallelism
	}
	if o.Seed != nil {
		c.Simulation.Seed = *o.Seed
	}
	return nil
}

// StoragePath returns the configured storage path, or the driver's default
// under DefaultDir.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Driver == DriverSQLite {
		return filepath.Join(DefaultDir(), "flip7.db")
	}
	return filepath.Join(DefaultDir(), "games")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q (want %s or %s)", c.Storage.Driver, DriverFile, DriverSQLite)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}

	if c.Simulation.Games < 0 {
		return fmt.Errorf("simulation games must not be negative: %d", c.Simulation.Games)
	}
	if c.Simulation.Parallelism < 0 {
		return fmt.Errorf("simulation parallelism must not be negative: %d", c.Simulation.Parallelism)
	}

	seen := make(map[string]bool, len(c.Players))
	for _, p := range c.Players {
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("player %s: defined more than once", p.Name)
		}
		seen[key] = true
		if err := p.StrategyConfig().Validate(); err != nil {
			return fmt.Errorf("player %s: %w", p.Name, err)
		}
	}
	return nil
}

// StrategyConfig converts the player block to a simulator strategy.
func (p PlayerConfig) StrategyConfig() simulator.StrategyConfig {
	return simulator.StrategyConfig{
		Kind:           p.Strategy,
		Target:         p.Target,
		HitProbability: p.HitProbability,
	}
}

// SimulationPlayers returns the configured players for the simulator.
func (c *Config) SimulationPlayers() []simulator.PlayerConfig {
	out := make([]simulator.PlayerConfig, len(c.Players))
	for i, p := range c.Players {
		out[i] = simulator.PlayerConfig{Name: p.Name, Strategy: p.StrategyConfig()}
	}
	return out
}

// GetPlayerByName returns a player configuration by name
func (c *Config) GetPlayerByName(name string) *PlayerConfig {
	for i := range c.Players {
		if strings.EqualFold(c.Players[i].Name, name) {
			return &c.Players[i]
		}
	}
	return nil
}
