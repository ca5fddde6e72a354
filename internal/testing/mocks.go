package testing

import (
	"context"
	"sync"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/universe"
)

// MockPositionSource is a mock implementation of portfolio.PositionSource and
// portfolio.CashSource for testing
type MockPositionSource struct {
	mu        sync.RWMutex
	positions []portfolio.Position
	total     float64
	cash      float64
	err       error
	totalErr  error
	cashErr   error
}

// NewMockPositionSource creates a new mock position source
func NewMockPositionSource() *MockPositionSource {
	return &MockPositionSource{positions: make([]portfolio.Position, 0)}
}

// SetPositions sets the positions to return; total value becomes their sum
func (m *MockPositionSource) SetPositions(positions []portfolio.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = positions
	m.total = 0
	for _, p := range positions {
		m.total += p.MarketValueEUR
	}
}

// SetTotalValue overrides the total value
func (m *MockPositionSource) SetTotalValue(total float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetCash sets available cash in EUR
func (m *MockPositionSource) SetCash(cash float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cash = cash
}

// SetError sets the error returned by GetAll
func (m *MockPositionSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetTotalError sets the error returned by GetTotalValue
func (m *MockPositionSource) SetTotalError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalErr = err
}

// SetCashError sets the error returned by GetAvailableCashEUR
func (m *MockPositionSource) SetCashError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cashErr = err
}

// GetAll returns all positions
func (m *MockPositionSource) GetAll(ctx context.Context) ([]portfolio.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.positions, nil
}

// GetTotalValue returns the total value
func (m *MockPositionSource) GetTotalValue(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.totalErr != nil {
		return 0, m.totalErr
	}
	return m.total, nil
}

// GetAvailableCashEUR returns cash
func (m *MockPositionSource) GetAvailableCashEUR(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cashErr != nil {
		return 0, m.cashErr
	}
	return m.cash, nil
}

// MockSecuritySource is a mock implementation of universe.SecuritySource
type MockSecuritySource struct {
	mu         sync.RWMutex
	securities []universe.Security
	err        error
}

// NewMockSecuritySource creates a new mock security source
func NewMockSecuritySource(securities ...universe.Security) *MockSecuritySource {
	return &MockSecuritySource{securities: securities}
}

// SetError sets the error to return
func (m *MockSecuritySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetAllActive returns active securities
func (m *MockSecuritySource) GetAllActive(ctx context.Context) ([]universe.Security, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var active []universe.Security
	for _, s := range m.securities {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

// MockScoreSource is a mock implementation of universe.ScoreSource
type MockScoreSource struct {
	mu     sync.RWMutex
	scores map[string]universe.SecurityScore
	err    error
	calls  int
}

// NewMockScoreSource creates a new mock score source
func NewMockScoreSource() *MockScoreSource {
	return &MockScoreSource{scores: make(map[string]universe.SecurityScore)}
}

// SetScore sets the score for a symbol
func (m *MockScoreSource) SetScore(score universe.SecurityScore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[score.Symbol] = score
}

// SetError sets the error to return
func (m *MockScoreSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times GetScores was called
func (m *MockScoreSource) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// GetScores returns scores for the requested symbols
func (m *MockScoreSource) GetScores(ctx context.Context, symbols []string) (map[string]universe.SecurityScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	result := make(map[string]universe.SecurityScore)
	for _, s := range symbols {
		if score, ok := m.scores[s]; ok {
			result[s] = score
		}
	}
	return result, nil
}

// MockAllocationSource is a mock implementation of allocation.TargetSource and
// allocation.GroupSource
type MockAllocationSource struct {
	mu              sync.RWMutex
	countryTargets  map[string]float64
	industryTargets map[string]float64
	countryGroups   map[string][]string
	industryGroups  map[string][]string
	err             error
}

// NewMockAllocationSource creates a new mock allocation source
func NewMockAllocationSource(countryTargets, industryTargets map[string]float64) *MockAllocationSource {
	return &MockAllocationSource{
		countryTargets:  countryTargets,
		industryTargets: industryTargets,
	}
}

// SetGroups sets group membership
func (m *MockAllocationSource) SetGroups(countryGroups, industryGroups map[string][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countryGroups = countryGroups
	m.industryGroups = industryGroups
}

// SetError sets the error to return
func (m *MockAllocationSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetCountryGroupTargets returns country targets
func (m *MockAllocationSource) GetCountryGroupTargets(ctx context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countryTargets, m.err
}

// GetIndustryGroupTargets returns industry targets
func (m *MockAllocationSource) GetIndustryGroupTargets(ctx context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.industryTargets, m.err
}

// GetCountryGroups returns country groups
func (m *MockAllocationSource) GetCountryGroups(ctx context.Context) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countryGroups, m.err
}

// GetIndustryGroups returns industry groups
func (m *MockAllocationSource) GetIndustryGroups(ctx context.Context) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.industryGroups, m.err
}

// MockPriceHistorySource is a mock implementation of universe.PriceHistorySource.
// When blocking is set, Fetch waits for context cancellation.
type MockPriceHistorySource struct {
	mu          sync.RWMutex
	series      map[string][]universe.DailyPrice
	err         error
	blocking    bool
	calls       int
	lastSymbols []string
}

// NewMockPriceHistorySource creates a new mock price history source
func NewMockPriceHistorySource() *MockPriceHistorySource {
	return &MockPriceHistorySource{series: make(map[string][]universe.DailyPrice)}
}

// SetSeries sets the price series for a symbol
func (m *MockPriceHistorySource) SetSeries(symbol string, prices []universe.DailyPrice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = prices
}

// SetError sets the error to return
func (m *MockPriceHistorySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetBlocking makes Fetch block until the context is done
func (m *MockPriceHistorySource) SetBlocking(blocking bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking = blocking
}

// Calls returns how many times Fetch was called
func (m *MockPriceHistorySource) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// LastSymbols returns the symbols of the latest Fetch
func (m *MockPriceHistorySource) LastSymbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSymbols
}

// Fetch returns the configured series for the requested symbols
func (m *MockPriceHistorySource) Fetch(ctx context.Context, symbols []string, lookbackDays int) (map[string][]universe.DailyPrice, error) {
	m.mu.Lock()
	m.calls++
	m.lastSymbols = append([]string(nil), symbols...)
	blocking := m.blocking
	m.mu.Unlock()

	if blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make(map[string][]universe.DailyPrice)
	for _, s := range symbols {
		if series, ok := m.series[s]; ok {
			result[s] = series
		}
	}
	return result, nil
}
