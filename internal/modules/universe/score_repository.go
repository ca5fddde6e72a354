package universe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ScoreRepository reads and writes the security_scores table.
type ScoreRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *sql.DB, log zerolog.Logger) *ScoreRepository {
	return &ScoreRepository{
		db:  db,
		log: log.With().Str("repo", "scores").Logger(),
	}
}

// GetScores returns scores for the given symbols in a single query.
// Symbols without a stored score are absent from the result.
func (r *ScoreRepository) GetScores(ctx context.Context, symbols []string) (map[string]SecurityScore, error) {
	result := make(map[string]SecurityScore, len(symbols))
	if len(symbols) == 0 {
		return result, nil
	}

	query := `SELECT symbol, total_score, quality_score, technical_score, fundamental_score,
			volatility, historical_volatility, distance_from_ma200, updated_at
		FROM security_scores
		WHERE symbol IN (` + placeholders(len(symbols)) + `)`

	rows, err := r.db.QueryContext(ctx, query, stringArgs(symbols)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query security scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var score SecurityScore
		var updatedAt sql.NullInt64
		if err := rows.Scan(
			&score.Symbol,
			&score.TotalScore,
			&score.QualityScore,
			&score.TechnicalScore,
			&score.FundamentalScore,
			&score.Volatility,
			&score.HistoricalVolatility,
			&score.DistanceFromMA200,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan security score: %w", err)
		}
		if updatedAt.Valid {
			t := time.Unix(updatedAt.Int64, 0).UTC()
			score.UpdatedAt = &t
		}
		result[score.Symbol] = score
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security scores: %w", err)
	}

	return result, nil
}

// Upsert inserts or replaces a score row, stamping updated_at with now.
func (r *ScoreRepository) Upsert(ctx context.Context, score SecurityScore) error {
	query := `INSERT INTO security_scores (symbol, total_score, quality_score, technical_score,
			fundamental_score, volatility, historical_volatility, distance_from_ma200, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			total_score = excluded.total_score,
			quality_score = excluded.quality_score,
			technical_score = excluded.technical_score,
			fundamental_score = excluded.fundamental_score,
			volatility = excluded.volatility,
			historical_volatility = excluded.historical_volatility,
			distance_from_ma200 = excluded.distance_from_ma200,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		score.Symbol, score.TotalScore, score.QualityScore, score.TechnicalScore,
		score.FundamentalScore, score.Volatility, score.HistoricalVolatility,
		score.DistanceFromMA200, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score for %s: %w", score.Symbol, err)
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
