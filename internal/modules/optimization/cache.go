package optimization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultCacheTTL is how long cached correlations stay valid.
const DefaultCacheTTL = 24 * time.Hour

// CorrelationCache stores correlation maps in the correlation_cache table as msgpack blobs.
type CorrelationCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger
}

// NewCorrelationCache creates a cache over the "cache" database.
func NewCorrelationCache(db *sql.DB, log zerolog.Logger) *CorrelationCache {
	return &CorrelationCache{
		db:  db,
		ttl: DefaultCacheTTL,
		now: time.Now,
		log: log.With().Str("component", "correlation_cache").Logger(),
	}
}

// WithTTL overrides the entry lifetime.
func (c *CorrelationCache) WithTTL(ttl time.Duration) *CorrelationCache {
	c.ttl = ttl
	return c
}

// WithClock replaces the time source.
func (c *CorrelationCache) WithClock(now func() time.Time) *CorrelationCache {
	c.now = now
	return c
}

// Get returns the unexpired entry for key.
func (c *CorrelationCache) Get(ctx context.Context, key string) (map[string]float64, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT payload FROM correlation_cache WHERE cache_key = ? AND expires_at > ?",
		key, c.now().Unix(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read correlation cache: %w", err)
	}

	var correlations map[string]float64
	if err := msgpack.Unmarshal(payload, &correlations); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached correlations: %w", err)
	}
	return correlations, true, nil
}

// Set stores correlations under key, replacing any previous entry.
func (c *CorrelationCache) Set(ctx context.Context, key string, correlations map[string]float64) error {
	payload, err := msgpack.Marshal(correlations)
	if err != nil {
		return fmt.Errorf("failed to encode correlations: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO correlation_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, c.now().Add(c.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write correlation cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired entries and returns how many were removed.
func (c *CorrelationCache) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM correlation_cache WHERE expires_at <= ?", c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge correlation cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	if n > 0 {
		c.log.Debug().Int64("purged", n).Msg("Purged expired correlations")
	}
	return n, nil
}
