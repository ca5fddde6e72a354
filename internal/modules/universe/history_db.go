package universe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryDB provides access to stored daily close prices.
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
		now: time.Now,
	}
}

// Fetch returns close series for all symbols within the lookback window using one query.
// lookbackDays counts trading sessions; the calendar window is widened accordingly and
// each series is trimmed to its last lookbackDays+1 closes (enough for lookbackDays returns).
func (h *HistoryDB) Fetch(ctx context.Context, symbols []string, lookbackDays int) (map[string][]DailyPrice, error) {
	result := make(map[string][]DailyPrice, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", lookbackDays)
	}

	calendarDays := lookbackDays*7/5 + 10
	startDate := h.now().AddDate(0, 0, -calendarDays).UTC().Format("2006-01-02")

	query := `SELECT symbol, date, close
		FROM daily_prices
		WHERE date >= ? AND symbol IN (` + placeholders(len(symbols)) + `)
		ORDER BY symbol, date ASC`

	args := append([]interface{}{startDate}, stringArgs(symbols)...)
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		var p DailyPrice
		if err := rows.Scan(&symbol, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		result[symbol] = append(result[symbol], p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	for symbol, series := range result {
		if len(series) > lookbackDays+1 {
			result[symbol] = series[len(series)-lookbackDays-1:]
		}
	}

	h.log.Debug().
		Int("requested", len(symbols)).
		Int("with_data", len(result)).
		Int("lookback_days", lookbackDays).
		Msg("Fetched price history")

	return result, nil
}

// InsertPrices stores closes for a symbol, replacing existing rows for the same dates.
func (h *HistoryDB) InsertPrices(ctx context.Context, symbol string, prices []DailyPrice) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO daily_prices (symbol, date, close) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, symbol, p.Date, p.Close); err != nil {
			return fmt.Errorf("failed to insert price for %s on %s: %w", symbol, p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices for %s: %w", symbol, err)
	}
	return nil
}
