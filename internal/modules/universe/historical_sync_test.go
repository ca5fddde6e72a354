package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistorySource struct {
	series  map[string][]DailyPrice
	err     error
	calls   int
	symbols []string
}

func (s *stubHistorySource) Fetch(ctx context.Context, symbols []string, lookbackDays int) (map[string][]DailyPrice, error) {
	s.calls++
	s.symbols = symbols
	return s.series, s.err
}

func TestHistoricalSyncService_SyncAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	securities := NewSecurityRepository(db.Conn(), zerolog.Nop())
	history := NewHistoryDB(db.Conn(), zerolog.Nop())
	history.now = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }

	for _, symbol := range []string{"AAA", "BBB", "CCC"} {
		require.NoError(t, securities.Upsert(ctx, Security{Symbol: symbol, Name: symbol, Price: 10, MinLot: 1, Active: true}))
	}

	source := &stubHistorySource{series: map[string][]DailyPrice{
		"AAA": {{Date: "2024-01-02", Close: 10}, {Date: "2024-01-03", Close: 500}, {Date: "2024-01-04", Close: 12}},
		"BBB": {{Date: "2024-01-02", Close: 20}},
	}}

	svc := NewHistoricalSyncService(source, securities, history, NewPriceValidator(zerolog.Nop()), zerolog.Nop())
	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls, "one batch fetch")
	assert.ElementsMatch(t, []string{"AAA", "BBB", "CCC"}, source.symbols)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, []string{"CCC"}, result.Missing)
	assert.Equal(t, 1, result.Interpolated)

	stored, err := history.Fetch(ctx, []string{"AAA", "BBB"}, 30)
	require.NoError(t, err)
	require.Len(t, stored["AAA"], 3)
	assert.InDelta(t, 11.0, stored["AAA"][1].Close, 1e-9)
	require.Len(t, stored["BBB"], 1)
}

func TestHistoricalSyncService_SyncAll_FetchError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	securities := NewSecurityRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, securities.Upsert(ctx, Security{Symbol: "AAA", Name: "AAA", Active: true}))

	source := &stubHistorySource{err: errors.New("timeout")}
	svc := NewHistoricalSyncService(source, securities, NewHistoryDB(db.Conn(), zerolog.Nop()), nil, zerolog.Nop())

	_, err := svc.SyncAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch historical prices: timeout")
}

func TestHistoricalSyncService_SyncAll_NoSecurities(t *testing.T) {
	db := newTestDB(t)
	source := &stubHistorySource{}
	svc := NewHistoricalSyncService(source, NewSecurityRepository(db.Conn(), zerolog.Nop()),
		NewHistoryDB(db.Conn(), zerolog.Nop()), nil, zerolog.Nop())

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Requested)
	assert.Equal(t, 0, source.calls)
}
