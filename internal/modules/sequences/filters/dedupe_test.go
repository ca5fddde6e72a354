package filters

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/modules/planning/domain"
)

func hashes(sequences []domain.ActionSequence) []string {
	out := make([]string, len(sequences))
	for i, seq := range sequences {
		out[i] = seq.SequenceHash
	}
	return out
}

func TestDedupeFilter(t *testing.T) {
	tests := []struct {
		name     string
		input    []domain.ActionSequence
		expected []string
	}{
		{
			name: "removes duplicates keeping first occurrence",
			input: []domain.ActionSequence{
				{SequenceHash: "hash1", PatternType: "single"},
				{SequenceHash: "hash2", PatternType: "single"},
				{SequenceHash: "hash1", PatternType: "strategy_bundle"},
				{SequenceHash: "hash3", PatternType: "all_actions"},
				{SequenceHash: "hash2", PatternType: "all_actions"},
			},
			expected: []string{"hash1", "hash2", "hash3"},
		},
		{
			name:     "no duplicates",
			input:    []domain.ActionSequence{{SequenceHash: "a"}, {SequenceHash: "b"}},
			expected: []string{"a", "b"},
		},
		{
			name: "empty hashes are kept",
			input: []domain.ActionSequence{
				{SequenceHash: "hash1"}, {SequenceHash: ""}, {SequenceHash: "hash1"}, {SequenceHash: ""},
			},
			expected: []string{"hash1", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewDedupeFilter(zerolog.Nop()).Filter(context.Background(), tt.input, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, hashes(result))
		})
	}
}

func TestDedupeFilter_KeepsFirstPattern(t *testing.T) {
	result, err := NewDedupeFilter(zerolog.Nop()).Filter(context.Background(), []domain.ActionSequence{
		{SequenceHash: "h", PatternType: "single"},
		{SequenceHash: "h", PatternType: "strategy_bundle"},
	}, nil)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "single", result[0].PatternType)
}

func TestDedupeFilter_EmptyInput(t *testing.T) {
	filter := NewDedupeFilter(zerolog.Nop())

	result, err := filter.Filter(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.Equal(t, "dedupe", filter.Name())
}
