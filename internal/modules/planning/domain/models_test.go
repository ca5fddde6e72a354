package domain

import (
	"testing"

	"github.com/aristath/rebalancer/internal/modules/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortfolioContext(t *testing.T) {
	positions := map[string]float64{"SAP": 3000, "AAPL": 5000}
	countries := map[string]string{"SAP": "EU", "AAPL": "US"}

	pc := NewPortfolioContext(PortfolioContextInput{
		CountryWeights: map[string]float64{"EU": 0.5, "US": 0.5},
		Positions:      positions,
		TotalValue:     10000,
		StockCountries: countries,
		StockScores:    map[string]float64{"SAP": 0.8},
		SecurityScores: map[string]universe.SecurityScore{"SAP": {Symbol: "SAP", QualityScore: 0.7}},
	})

	assert.Equal(t, 10000.0, pc.TotalValue)
	assert.InDelta(t, 0.3, pc.CountryAllocations["EU"], 1e-12)
	assert.InDelta(t, 0.5, pc.CountryAllocations["US"], 1e-12)
	assert.Empty(t, pc.IndustryAllocations)
	assert.InDelta(t, 0.5, pc.PositionPct("AAPL"), 1e-12)

	score, ok := pc.Score("SAP")
	require.True(t, ok)
	assert.Equal(t, 0.7, score.QualityScore)

	// Inputs are copied
	positions["SAP"] = 0
	countries["SAP"] = "US"
	assert.Equal(t, 3000.0, pc.Positions["SAP"])
	assert.Equal(t, "EU", pc.StockCountries["SAP"])
}

func TestNewPortfolioContext_ClampsTotalValue(t *testing.T) {
	tests := []struct {
		name  string
		total float64
	}{
		{"zero", 0},
		{"negative", -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := NewPortfolioContext(PortfolioContextInput{TotalValue: tt.total})
			assert.Equal(t, MinTotalValue, pc.TotalValue)
			assert.NotNil(t, pc.Positions)
			assert.NotNil(t, pc.SecurityScores)
		})
	}
}

func TestNewStrategicGoal(t *testing.T) {
	goal, err := NewStrategicGoal(GoalParams{
		StrategyType:      StrategyDiversification,
		Category:          GoalCategoryCountry,
		Name:              "US",
		Action:            GoalActionDecrease,
		CurrentValue:      0.6,
		TargetValue:       0.4,
		PriorityScore:     0.8,
		TargetValueChange: -2000,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, goal.GapSize, 1e-12)
	assert.Equal(t, 2000.0, goal.TargetValueChange)
	assert.Equal(t, "country:US", goal.Key())

	_, err = NewStrategicGoal(GoalParams{Category: GoalCategoryCountry, Name: "US", Action: "hold"})
	assert.ErrorIs(t, err, ErrInvalidGoalAction)

	_, err = NewStrategicGoal(GoalParams{Category: GoalCategoryCountry, Action: GoalActionIncrease})
	assert.Error(t, err)
}

func TestCandidateToAction(t *testing.T) {
	buy := BuyCandidate{Symbol: "SAP", Quantity: 5, Price: 100, Amount: 500, GoalKey: "country:EU"}
	action := buy.ToAction()
	assert.Equal(t, TradeSideBuy, action.Side)
	assert.Equal(t, 500.0, action.ValueEUR)
	assert.Equal(t, "country:EU", action.GoalKey)

	sell := SellCandidate{Symbol: "AAPL", Quantity: 2, Price: 150, EstimatedValue: 270}
	action = sell.ToAction()
	assert.Equal(t, TradeSideSell, action.Side)
	assert.Equal(t, 270.0, action.ValueEUR)
}

func TestActionSequenceBuySymbols(t *testing.T) {
	seq := ActionSequence{Actions: []ActionCandidate{
		{Side: TradeSideSell, Symbol: "X"},
		{Side: TradeSideBuy, Symbol: "A"},
		{Side: TradeSideBuy, Symbol: "B"},
	}}
	assert.Equal(t, []string{"A", "B"}, seq.BuySymbols())
}

func TestStrategicPlanGoalKeys(t *testing.T) {
	plan := StrategicPlan{Steps: []PlanStep{
		{Goal: StrategicGoal{Category: "country", Name: "EU"}},
		{Goal: StrategicGoal{Category: "security", Name: "SAP"}},
	}}
	assert.Equal(t, []string{"country:EU", "security:SAP"}, plan.GoalKeys())
}
