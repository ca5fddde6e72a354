// Package sequences turns plan actions into candidate action sequences and filters them.
package sequences

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
	"github.com/rs/zerolog"
)

// Pattern types of generated sequences.
const (
	PatternSingle         = "single"
	PatternStrategyBundle = "strategy_bundle"
	PatternAllActions     = "all_actions"
)

// GenerationConfig contains parameters for sequence generation.
type GenerationConfig struct {
	MaxDepth      int     // Maximum number of actions per bundle
	AvailableCash float64 // Cash buys may spend, in EUR
}

// DefaultGenerationConfig returns the default generation parameters.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{MaxDepth: 5}
}

// Generator builds single-action sequences, one bundle per strategy and one bundle of all
// actions.
type Generator struct {
	log zerolog.Logger
}

// NewGenerator creates a new sequence generator.
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{log: log.With().Str("component", "sequence_generator").Logger()}
}

// Generate creates candidate sequences from plan actions. Singles that cannot be paid for
// are dropped; bundles admit buys greedily while cash lasts. Every sequence lists SELL
// actions before BUY actions and holds at most one action per symbol.
func (g *Generator) Generate(actions []domain.ActionCandidate, config GenerationConfig) []domain.ActionSequence {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultGenerationConfig().MaxDepth
	}

	candidates := dedupeBySymbol(actions)
	if len(candidates) == 0 {
		return nil
	}

	var sequences []domain.ActionSequence
	for _, c := range candidates {
		if c.Side == domain.TradeSideBuy && c.ValueEUR > config.AvailableCash {
			continue
		}
		sequences = append(sequences, newSequence([]domain.ActionCandidate{c}, PatternSingle))
	}

	byStrategy := make(map[string][]domain.ActionCandidate)
	for _, c := range candidates {
		byStrategy[c.StrategyType] = append(byStrategy[c.StrategyType], c)
	}
	strategyNames := make([]string, 0, len(byStrategy))
	for name := range byStrategy {
		strategyNames = append(strategyNames, name)
	}
	sort.Strings(strategyNames)

	for _, name := range strategyNames {
		if bundle := bundleActions(byStrategy[name], config); len(bundle) > 1 {
			sequences = append(sequences, newSequence(bundle, PatternStrategyBundle))
		}
	}
	if len(strategyNames) > 1 {
		if bundle := bundleActions(candidates, config); len(bundle) > 1 {
			sequences = append(sequences, newSequence(bundle, PatternAllActions))
		}
	}

	SortSequences(sequences)

	g.log.Debug().
		Int("candidates", len(candidates)).
		Int("sequences", len(sequences)).
		Msg("Sequences generated")
	return sequences
}

// Score is the sequence's total priority, favoring broad bundles of strong actions.
func Score(seq domain.ActionSequence) float64 {
	return seq.Priority * float64(seq.Depth)
}

// SortSequences orders sequences by score desc, depth desc, hash asc.
func SortSequences(sequences []domain.ActionSequence) {
	sort.SliceStable(sequences, func(i, j int) bool {
		si, sj := Score(sequences[i]), Score(sequences[j])
		if si != sj {
			return si > sj
		}
		if sequences[i].Depth != sequences[j].Depth {
			return sequences[i].Depth > sequences[j].Depth
		}
		return sequences[i].SequenceHash < sequences[j].SequenceHash
	})
}

// HashSequence creates a deterministic MD5 hash of the (symbol, side, quantity) tuples.
// The sequence must be normalized first for order-independent comparison.
func HashSequence(actions []domain.ActionCandidate) string {
	type tuple struct {
		Symbol   string `json:"symbol"`
		Side     string `json:"side"`
		Quantity int    `json:"quantity"`
	}

	tuples := make([]tuple, len(actions))
	for i, a := range actions {
		tuples[i] = tuple{Symbol: a.Symbol, Side: string(a.Side), Quantity: a.Quantity}
	}

	jsonBytes, err := json.Marshal(tuples)
	if err != nil {
		return ""
	}
	hash := md5.Sum(jsonBytes)
	return hex.EncodeToString(hash[:])
}

// NormalizeSequence sorts actions SELL first, then by symbol.
func NormalizeSequence(actions []domain.ActionCandidate) []domain.ActionCandidate {
	result := make([]domain.ActionCandidate, len(actions))
	copy(result, actions)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Side != result[j].Side {
			return result[i].Side == domain.TradeSideSell
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

func newSequence(actions []domain.ActionCandidate, pattern string) domain.ActionSequence {
	normalized := NormalizeSequence(actions)
	return domain.ActionSequence{
		Actions:      normalized,
		Priority:     averagePriority(normalized),
		Depth:        len(normalized),
		PatternType:  pattern,
		SequenceHash: HashSequence(normalized),
	}
}

// bundleActions takes the strongest actions up to MaxDepth. Sells are always affordable and
// fund later buys; a buy is admitted only while cash covers it.
func bundleActions(actions []domain.ActionCandidate, config GenerationConfig) []domain.ActionCandidate {
	ranked := make([]domain.ActionCandidate, len(actions))
	copy(ranked, actions)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Side != ranked[j].Side {
			return ranked[i].Side == domain.TradeSideSell
		}
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority > ranked[j].Priority
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	cash := config.AvailableCash
	var bundle []domain.ActionCandidate
	for _, a := range ranked {
		if len(bundle) >= config.MaxDepth {
			break
		}
		if a.Side == domain.TradeSideSell {
			cash += a.ValueEUR
		} else {
			if a.ValueEUR > cash {
				continue
			}
			cash -= a.ValueEUR
		}
		bundle = append(bundle, a)
	}
	return bundle
}

// dedupeBySymbol keeps one action per symbol: the highest priority one, SELL on ties.
// The result is ordered by symbol.
func dedupeBySymbol(actions []domain.ActionCandidate) []domain.ActionCandidate {
	best := make(map[string]domain.ActionCandidate)
	for _, a := range actions {
		if a.Quantity <= 0 || a.Symbol == "" {
			continue
		}
		cur, ok := best[a.Symbol]
		if !ok || a.Priority > cur.Priority ||
			(a.Priority == cur.Priority && a.Side == domain.TradeSideSell && cur.Side == domain.TradeSideBuy) {
			best[a.Symbol] = a
		}
	}

	out := make([]domain.ActionCandidate, 0, len(best))
	for _, a := range best {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func averagePriority(actions []domain.ActionCandidate) float64 {
	if len(actions) == 0 {
		return 0
	}
	var total float64
	for _, a := range actions {
		total += a.Priority
	}
	return total / float64(len(actions))
}
