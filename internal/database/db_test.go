package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), name+".db"),
		Name: name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDatabaseAndMigrates(t *testing.T) {
	db := newDB(t, "portfolio")

	require.NoError(t, db.Migrate())
	// Idempotent
	require.NoError(t, db.Migrate())

	for _, table := range []string{"positions", "securities", "security_scores", "allocation_targets", "daily_prices"} {
		var count int
		err := db.Conn().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newDB(t, "scratch")
	assert.NoError(t, db.Migrate())
}

func TestBuildConnectionString(t *testing.T) {
	standard := buildConnectionString("/tmp/a.db", ProfileStandard)
	assert.Contains(t, standard, "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")

	cache := buildConnectionString("file:mem?mode=memory", ProfileCache)
	assert.Contains(t, cache, "file:mem?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")
}

func TestWithTransaction(t *testing.T) {
	db := newDB(t, "cache")
	require.NoError(t, db.Migrate())

	t.Run("commits on success", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			_, err := tx.Exec("INSERT INTO correlation_cache (cache_key, payload, expires_at) VALUES ('a', x'00', 1)")
			return err
		})
		require.NoError(t, err)

		var count int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM correlation_cache").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		errBoom := errors.New("boom")
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			_, _ = tx.Exec("INSERT INTO correlation_cache (cache_key, payload, expires_at) VALUES ('b', x'00', 1)")
			return errBoom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)

		var count int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM correlation_cache WHERE cache_key='b'").Scan(&count))
		assert.Equal(t, 0, count)
	})

	t.Run("nil connection", func(t *testing.T) {
		assert.Error(t, WithTransaction(nil, func(tx *sql.Tx) error { return nil }))
	})
}
