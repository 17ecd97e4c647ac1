package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/randutil"
)

func decisionWith(t *testing.T, cards string) Decision {
	t.Helper()
	hand, err := deck.ParseCards(cards)
	require.NoError(t, err)
	return Decision{Player: &game.PlayerState{Hand: hand, Status: game.Active}}
}

func TestThresholdStrategy(t *testing.T) {
	t.Parallel()

	s, err := NewStrategy(StrategyConfig{Kind: StrategyThreshold, Target: 20}, nil)
	require.NoError(t, err)
	assert.Equal(t, "threshold(20)", s.Name())

	tests := []struct {
		hand string
		hit  bool
	}{
		{"", true},
		{"12 7", true},
		{"12 8", false},
		{"5 x2 +4", true},
		{"6 4 x2", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.hit, s.Hit(decisionWith(t, tt.hand)), "hand %q", tt.hand)
	}
}

func TestRandomStrategy(t *testing.T) {
	t.Parallel()

	always, err := NewStrategy(StrategyConfig{Kind: StrategyRandom, HitProbability: 1}, randutil.New(1))
	require.NoError(t, err)
	never, err := NewStrategy(StrategyConfig{Kind: StrategyRandom, HitProbability: 0}, randutil.New(1))
	require.NoError(t, err)
	assert.Equal(t, "random(100%)", always.Name())
	assert.Equal(t, "random(0%)", never.Name())

	d := decisionWith(t, "3")
	for range 50 {
		assert.True(t, always.Hit(d))
		assert.False(t, never.Hit(d))
	}

	// The same seed makes the same choices.
	a, _ := NewStrategy(StrategyConfig{Kind: StrategyRandom, HitProbability: 0.5}, randutil.New(42))
	b, _ := NewStrategy(StrategyConfig{Kind: StrategyRandom, HitProbability: 0.5}, randutil.New(42))
	hits := 0
	for range 200 {
		ha := a.Hit(d)
		assert.Equal(t, ha, b.Hit(d))
		if ha {
			hits++
		}
	}
	assert.InDelta(t, 100, hits, 40)
}

func TestStrategyLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "random(25%)", StrategyConfig{Kind: StrategyRandom, HitProbability: 0.25}.Label())
	assert.Equal(t, "threshold(30)", StrategyConfig{Kind: StrategyThreshold, Target: 30}.Label())
	assert.Equal(t, "mystery", StrategyConfig{Kind: "mystery"}.Label())
}
