package portfolio

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PositionRepository handles position and cash balance database operations.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// GetAll returns all positions with a positive quantity, ordered by symbol.
func (r *PositionRepository) GetAll(ctx context.Context) ([]Position, error) {
	query := `SELECT symbol, quantity, avg_price, current_price, currency, currency_rate,
			market_value_eur, first_bought_at, last_transaction_at
		FROM positions
		WHERE quantity > 0
		ORDER BY symbol`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var pos Position
		var firstBought, lastTx sql.NullInt64

		if err := rows.Scan(
			&pos.Symbol,
			&pos.Quantity,
			&pos.AvgPrice,
			&pos.CurrentPrice,
			&pos.Currency,
			&pos.CurrencyRate,
			&pos.MarketValueEUR,
			&firstBought,
			&lastTx,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		pos.FirstBoughtAt = unixToTime(firstBought)
		pos.LastTransactionAt = unixToTime(lastTx)
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetTotalValue returns the EUR market value of all positions plus cash.
func (r *PositionRepository) GetTotalValue(ctx context.Context) (float64, error) {
	var positionsValue float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(market_value_eur), 0) FROM positions WHERE quantity > 0",
	).Scan(&positionsValue)
	if err != nil {
		return 0, fmt.Errorf("failed to sum position values: %w", err)
	}

	cash, err := r.GetAvailableCashEUR(ctx)
	if err != nil {
		return 0, err
	}

	return positionsValue + cash, nil
}

// GetAvailableCashEUR returns all cash balances converted to EUR.
func (r *PositionRepository) GetAvailableCashEUR(ctx context.Context) (float64, error) {
	var cash float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount * currency_rate), 0) FROM cash_balances",
	).Scan(&cash)
	if err != nil {
		return 0, fmt.Errorf("failed to sum cash balances: %w", err)
	}
	return cash, nil
}

// Upsert inserts or replaces a position.
func (r *PositionRepository) Upsert(ctx context.Context, pos Position) error {
	query := `INSERT INTO positions (symbol, quantity, avg_price, current_price, currency,
			currency_rate, market_value_eur, first_bought_at, last_transaction_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			quantity = excluded.quantity,
			avg_price = excluded.avg_price,
			current_price = excluded.current_price,
			currency = excluded.currency,
			currency_rate = excluded.currency_rate,
			market_value_eur = excluded.market_value_eur,
			first_bought_at = excluded.first_bought_at,
			last_transaction_at = excluded.last_transaction_at`

	rate := pos.CurrencyRate
	if rate <= 0 {
		rate = 1.0
	}

	_, err := r.db.ExecContext(ctx, query,
		pos.Symbol, pos.Quantity, pos.AvgPrice, pos.CurrentPrice, pos.Currency, rate,
		pos.MarketValueEUR, timeToUnix(pos.FirstBoughtAt), timeToUnix(pos.LastTransactionAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position %s: %w", pos.Symbol, err)
	}
	return nil
}

// SetCashBalance stores the balance held in one currency.
func (r *PositionRepository) SetCashBalance(ctx context.Context, currency string, amount, rate float64) error {
	if rate <= 0 {
		rate = 1.0
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cash_balances (currency, amount, currency_rate) VALUES (?, ?, ?)
		ON CONFLICT(currency) DO UPDATE SET amount = excluded.amount, currency_rate = excluded.currency_rate`,
		currency, amount, rate,
	)
	if err != nil {
		return fmt.Errorf("failed to set cash balance for %s: %w", currency, err)
	}
	return nil
}

func unixToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func timeToUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
