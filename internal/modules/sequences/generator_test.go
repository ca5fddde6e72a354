package sequences

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
)

func buy(symbol, strategy string, value, priority float64) domain.ActionCandidate {
	return domain.ActionCandidate{
		Side: domain.TradeSideBuy, Symbol: symbol, Quantity: 1, ValueEUR: value,
		Priority: priority, StrategyType: strategy,
	}
}

func sell(symbol, strategy string, value, priority float64) domain.ActionCandidate {
	return domain.ActionCandidate{
		Side: domain.TradeSideSell, Symbol: symbol, Quantity: 1, ValueEUR: value,
		Priority: priority, StrategyType: strategy,
	}
}

func symbols(seq domain.ActionSequence) []string {
	out := make([]string, len(seq.Actions))
	for i, a := range seq.Actions {
		out[i] = string(a.Side) + ":" + a.Symbol
	}
	return out
}

func TestNormalizeSequence(t *testing.T) {
	actions := []domain.ActionCandidate{
		buy("BBB", "x", 1, 1), sell("ZZZ", "x", 1, 1), buy("AAA", "x", 1, 1), sell("CCC", "x", 1, 1),
	}

	normalized := NormalizeSequence(actions)

	assert.Equal(t, []string{"SELL:CCC", "SELL:ZZZ", "BUY:AAA", "BUY:BBB"},
		symbols(domain.ActionSequence{Actions: normalized}))
	assert.Equal(t, "BBB", actions[0].Symbol, "input is not modified")
}

func TestHashSequence(t *testing.T) {
	a := NormalizeSequence([]domain.ActionCandidate{buy("AAA", "x", 100, 1), sell("BBB", "y", 50, 0.5)})
	b := NormalizeSequence([]domain.ActionCandidate{sell("BBB", "z", 10, 0.1), buy("AAA", "w", 1, 0.9)})
	c := NormalizeSequence([]domain.ActionCandidate{buy("AAA", "x", 100, 1)})

	assert.Len(t, HashSequence(a), 32)
	assert.Equal(t, HashSequence(a), HashSequence(b), "hash covers symbol, side and quantity only")
	assert.NotEqual(t, HashSequence(a), HashSequence(c))
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(zerolog.Nop())
	actions := []domain.ActionCandidate{
		sell("DDD", domain.StrategyDiversification, 300, 0.5),
		buy("AAA", domain.StrategyDiversification, 400, 1.0),
		buy("BBB", domain.StrategyOpportunity, 200, 0.8),
		buy("CCC", domain.StrategyOpportunity, 900, 0.6),
	}

	sequences := g.Generate(actions, GenerationConfig{MaxDepth: 5, AvailableCash: 500})

	byPattern := make(map[string][]domain.ActionSequence)
	for _, seq := range sequences {
		byPattern[seq.PatternType] = append(byPattern[seq.PatternType], seq)
	}

	// CCC alone exceeds cash
	require.Len(t, byPattern[PatternSingle], 3)
	require.Len(t, byPattern[PatternStrategyBundle], 1)
	assert.Equal(t, []string{"SELL:DDD", "BUY:AAA"}, symbols(byPattern[PatternStrategyBundle][0]))

	require.Len(t, byPattern[PatternAllActions], 1)
	all := byPattern[PatternAllActions][0]
	// 500 cash + 300 from DDD funds AAA (400), then BBB (200), not CCC (900)
	assert.Equal(t, []string{"SELL:DDD", "BUY:AAA", "BUY:BBB"}, symbols(all))
	assert.Equal(t, 3, all.Depth)
	assert.InDelta(t, (0.5+1.0+0.8)/3, all.Priority, 1e-9)

	assert.Equal(t, PatternAllActions, sequences[0].PatternType, "broadest bundle ranks first")
}

func TestGenerator_MaxDepth(t *testing.T) {
	g := NewGenerator(zerolog.Nop())
	actions := []domain.ActionCandidate{
		buy("AAA", "x", 10, 0.9), buy("BBB", "x", 10, 0.8), buy("CCC", "x", 10, 0.7),
	}

	sequences := g.Generate(actions, GenerationConfig{MaxDepth: 2, AvailableCash: 1000})

	for _, seq := range sequences {
		assert.LessOrEqual(t, seq.Depth, 2)
		if seq.PatternType == PatternStrategyBundle {
			assert.Equal(t, []string{"BUY:AAA", "BUY:BBB"}, symbols(seq))
		}
	}
}

func TestGenerator_OneActionPerSymbol(t *testing.T) {
	tests := []struct {
		name     string
		actions  []domain.ActionCandidate
		expected string
	}{
		{"higher priority wins", []domain.ActionCandidate{buy("AAA", "x", 10, 0.4), sell("AAA", "y", 10, 0.6)}, "SELL:AAA"},
		{"sell wins ties", []domain.ActionCandidate{buy("AAA", "x", 10, 0.5), sell("AAA", "y", 10, 0.5)}, "SELL:AAA"},
		{"same side keeps stronger", []domain.ActionCandidate{buy("AAA", "x", 10, 0.9), buy("AAA", "y", 20, 0.3)}, "BUY:AAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sequences := NewGenerator(zerolog.Nop()).Generate(tt.actions, GenerationConfig{AvailableCash: 100})

			require.Len(t, sequences, 1)
			assert.Equal(t, []string{tt.expected}, symbols(sequences[0]))
		})
	}
}

func TestGenerator_SkipsEmptyActions(t *testing.T) {
	g := NewGenerator(zerolog.Nop())

	assert.Empty(t, g.Generate(nil, DefaultGenerationConfig()))
	assert.Empty(t, g.Generate([]domain.ActionCandidate{{Side: domain.TradeSideBuy, Symbol: "AAA"}}, DefaultGenerationConfig()))
}

func TestSortSequences(t *testing.T) {
	sequences := []domain.ActionSequence{
		{SequenceHash: "b", Priority: 0.5, Depth: 2},
		{SequenceHash: "a", Priority: 1.0, Depth: 1},
		{SequenceHash: "c", Priority: 0.9, Depth: 2},
		{SequenceHash: "d", Priority: 0.25, Depth: 4},
	}

	SortSequences(sequences)

	assert.Equal(t, "c", sequences[0].SequenceHash)
	assert.Equal(t, "d", sequences[1].SequenceHash, "equal score prefers depth")
	assert.Equal(t, "b", sequences[2].SequenceHash, "then hash")
	assert.Equal(t, "a", sequences[3].SequenceHash)
}
