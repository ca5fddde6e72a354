package universe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// SecurityRepository reads and writes the securities table.
type SecurityRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSecurityRepository creates a new security repository
func NewSecurityRepository(db *sql.DB, log zerolog.Logger) *SecurityRepository {
	return &SecurityRepository{
		db:  db,
		log: log.With().Str("repo", "securities").Logger(),
	}
}

const securityColumns = `symbol, name, country, industry, currency, currency_rate, price,
	min_lot, active, allow_buy, allow_sell`

// GetAllActive returns all active securities ordered by symbol.
func (r *SecurityRepository) GetAllActive(ctx context.Context) ([]Security, error) {
	query := "SELECT " + securityColumns + " FROM securities WHERE active = 1 ORDER BY symbol"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active securities: %w", err)
	}
	defer rows.Close()

	var securities []Security
	for rows.Next() {
		sec, err := scanSecurity(rows)
		if err != nil {
			return nil, err
		}
		securities = append(securities, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating securities: %w", err)
	}

	return securities, nil
}

// GetBySymbol returns a security by symbol, or nil when it does not exist.
func (r *SecurityRepository) GetBySymbol(ctx context.Context, symbol string) (*Security, error) {
	query := "SELECT " + securityColumns + " FROM securities WHERE symbol = ?"

	row := r.db.QueryRowContext(ctx, query, symbol)
	sec, err := scanSecurity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// Upsert inserts or replaces a security.
func (r *SecurityRepository) Upsert(ctx context.Context, sec Security) error {
	query := `INSERT INTO securities (` + securityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			industry = excluded.industry,
			currency = excluded.currency,
			currency_rate = excluded.currency_rate,
			price = excluded.price,
			min_lot = excluded.min_lot,
			active = excluded.active,
			allow_buy = excluded.allow_buy,
			allow_sell = excluded.allow_sell`

	rate := sec.CurrencyRate
	if rate <= 0 {
		rate = 1.0
	}

	_, err := r.db.ExecContext(ctx, query,
		sec.Symbol, sec.Name, sec.Country, sec.Industry, sec.Currency, rate, sec.Price,
		sec.EffectiveMinLot(), boolToInt(sec.Active), boolToInt(sec.AllowBuy), boolToInt(sec.AllowSell),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert security %s: %w", sec.Symbol, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSecurity(row rowScanner) (Security, error) {
	var sec Security
	var active, allowBuy, allowSell int

	err := row.Scan(
		&sec.Symbol,
		&sec.Name,
		&sec.Country,
		&sec.Industry,
		&sec.Currency,
		&sec.CurrencyRate,
		&sec.Price,
		&sec.MinLot,
		&active,
		&allowBuy,
		&allowSell,
	)
	if err == sql.ErrNoRows {
		return sec, err
	}
	if err != nil {
		return sec, fmt.Errorf("failed to scan security: %w", err)
	}

	sec.Active = active != 0
	sec.AllowBuy = allowBuy != 0
	sec.AllowSell = allowSell != 0
	return sec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
