package simulator

import (
	"fmt"
	rand "math/rand/v2"
	"strings"

	"github.com/lox/flip7/internal/game"
)

// Strategy strategy kinds
const (
	StrategyRandom    = "random"
	StrategyThreshold = "threshold"
)

// Decision is what a strategy sees when asked to hit or stay.
type Decision struct {
	Player *game.PlayerState
	Round  *game.RoundState
	Scores map[string]int // Cumulative scores before this round
}

// Strategy decides whether a player takes another card. Forced draws and
// duplicates are handled by the runner and never reach a strategy.
type Strategy interface {
	Name() string
	Hit(d Decision) bool
}

// StrategyConfig describes a strategy.
type StrategyConfig struct {
	Kind           string
	Target         int     // threshold: stay once the hand scores this much
	HitProbability float64 // random: chance of taking a card
}

// Label names the strategy in results, e.g. "threshold(25)" or "random(50%)".
func (c StrategyConfig) Label() string {
	switch c.Kind {
	case StrategyRandom:
		return fmt.Sprintf("random(%.0f%%)", c.HitProbability*100)
	case StrategyThreshold:
		return fmt.Sprintf("threshold(%d)", c.Target)
	default:
		return c.Kind
	}
}

// Validate checks the strategy parameters.
func (c StrategyConfig) Validate() error {
	switch c.Kind {
	case StrategyRandom:
		if c.HitProbability < 0 || c.HitProbability > 1 {
			return fmt.Errorf("hit probability %.2f is outside [0, 1]", c.HitProbability)
		}
	case StrategyThreshold:
		if c.Target <= 0 {
			return fmt.Errorf("threshold target must be positive, got %d", c.Target)
		}
	default:
		return fmt.Errorf("unknown strategy %q (want %s)", c.Kind,
			strings.Join([]string{StrategyRandom, StrategyThreshold}, " or "))
	}
	return nil
}

// NewStrategy builds the strategy described by c. rng drives any random
// choices so that a seeded game plays out the same way every time.
func NewStrategy(c StrategyConfig, rng *rand.Rand) (Strategy, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Kind {
	case StrategyRandom:
		return &RandomStrategy{HitProbability: c.HitProbability, rng: rng}, nil
	default:
		return &ThresholdStrategy{Target: c.Target}, nil
	}
}

// RandomStrategy hits with a fixed probability.
type RandomStrategy struct {
	HitProbability float64
	rng            *rand.Rand
}

func (s *RandomStrategy) Name() string {
	return StrategyConfig{Kind: StrategyRandom, HitProbability: s.HitProbability}.Label()
}

func (s *RandomStrategy) Hit(Decision) bool {
	return s.rng.Float64() < s.HitProbability
}

// ThresholdStrategy hits until the hand scores at least Target.
type ThresholdStrategy struct {
	Target int
}

func (s *ThresholdStrategy) Name() string {
	return StrategyConfig{Kind: StrategyThreshold, Target: s.Target}.Label()
}

func (s *ThresholdStrategy) Hit(d Decision) bool {
	return d.Player.Breakdown().Final < s.Target
}
