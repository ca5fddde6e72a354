package domain

import "github.com/aristath/rebalancer/internal/modules/allocation"

// AllocationStatus reports a bucket against its target.
type AllocationStatus = allocation.AllocationStatus

// TradeSide represents the side of a trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// SizedTrade is a lot-aligned quantity derived from a monetary target.
type SizedTrade struct {
	Quantity    int     `json:"quantity"`
	ValueNative float64 `json:"value_native"`
	ValueEUR    float64 `json:"value_eur"`
	NumLots     int     `json:"num_lots"`
}

// BuyCandidate is a strategy's proposal to buy a security.
type BuyCandidate struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"` // EUR
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"` // Native currency
	Currency     string  `json:"currency"`
	Reason       string  `json:"reason"`
	Priority     float64 `json:"priority"`
	StrategyType string  `json:"strategy_type"`
	GoalKey      string  `json:"goal_key"`
}

// SellCandidate is a strategy's proposal to sell part of a position.
type SellCandidate struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"` // Native currency
	EstimatedValue float64 `json:"estimated_value"` // EUR
	Currency       string  `json:"currency"`
	Reason         string  `json:"reason"`
	Priority       float64 `json:"priority"`
	StrategyType   string  `json:"strategy_type"`
	GoalKey        string  `json:"goal_key"`
}

// ActionCandidate is one step in an action sequence.
type ActionCandidate struct {
	Side         TradeSide `json:"side"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	ValueEUR     float64   `json:"value_eur"`
	Currency     string    `json:"currency"`
	Priority     float64   `json:"priority"`
	Reason       string    `json:"reason"`
	StrategyType string    `json:"strategy_type"`
	GoalKey      string    `json:"goal_key"`
}

// ToAction converts a buy candidate to an action.
func (b BuyCandidate) ToAction() ActionCandidate {
	return ActionCandidate{
		Side:         TradeSideBuy,
		Symbol:       b.Symbol,
		Name:         b.Name,
		Quantity:     b.Quantity,
		Price:        b.Price,
		ValueEUR:     b.Amount,
		Currency:     b.Currency,
		Priority:     b.Priority,
		Reason:       b.Reason,
		StrategyType: b.StrategyType,
		GoalKey:      b.GoalKey,
	}
}

// ToAction converts a sell candidate to an action.
func (s SellCandidate) ToAction() ActionCandidate {
	return ActionCandidate{
		Side:         TradeSideSell,
		Symbol:       s.Symbol,
		Name:         s.Name,
		Quantity:     s.Quantity,
		Price:        s.Price,
		ValueEUR:     s.EstimatedValue,
		Currency:     s.Currency,
		Priority:     s.Priority,
		Reason:       s.Reason,
		StrategyType: s.StrategyType,
		GoalKey:      s.GoalKey,
	}
}

// ActionSequence is an ordered set of actions evaluated as a unit.
type ActionSequence struct {
	Actions      []ActionCandidate `json:"actions"`
	Priority     float64           `json:"priority"`
	Depth        int               `json:"depth"`
	PatternType  string            `json:"pattern_type"`
	SequenceHash string            `json:"sequence_hash"`
}

// BuySymbols returns the symbols of all BUY actions in order.
func (s ActionSequence) BuySymbols() []string {
	var symbols []string
	for _, a := range s.Actions {
		if a.Side == TradeSideBuy {
			symbols = append(symbols, a.Symbol)
		}
	}
	return symbols
}

// PlanStep is one merged goal and the actions proposed for it.
type PlanStep struct {
	Rank               int               `json:"rank"`
	Goal               StrategicGoal     `json:"goal"`
	NormalizedPriority float64           `json:"normalized_priority"`
	Sources            []string          `json:"sources"`
	Actions            []ActionCandidate `json:"actions,omitempty"`
}

// StrategicPlan is the ordered outcome of goal planning.
type StrategicPlan struct {
	Steps         []PlanStep `json:"steps"`
	TotalValue    float64    `json:"total_value"`
	AvailableCash float64    `json:"available_cash"`
}

// GoalKeys returns the goal keys in plan order.
func (p StrategicPlan) GoalKeys() []string {
	keys := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		keys[i] = step.Goal.Key()
	}
	return keys
}

// Recommendation is a single trade handed to execution or reporting.
type Recommendation struct {
	UUID         string    `json:"uuid"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Side         TradeSide `json:"side"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Amount       float64   `json:"amount"` // EUR
	Currency     string    `json:"currency"`
	Reason       string    `json:"reason"`
	Priority     float64   `json:"priority"`
	StrategyType string    `json:"strategy_type"`
	GoalKey      string    `json:"goal_key"`
}
