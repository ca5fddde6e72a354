package database

// schemas maps database names to their DDL. Statements are idempotent.
var schemas = map[string]string{
	"portfolio": portfolioSchema,
	"cache":     cacheSchema,
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT PRIMARY KEY,
	quantity REAL NOT NULL,
	avg_price REAL NOT NULL,
	current_price REAL NOT NULL,
	currency TEXT NOT NULL DEFAULT 'EUR',
	currency_rate REAL NOT NULL DEFAULT 1.0,
	market_value_eur REAL NOT NULL,
	first_bought_at INTEGER,
	last_transaction_at INTEGER
);

CREATE TABLE IF NOT EXISTS cash_balances (
	currency TEXT PRIMARY KEY,
	amount REAL NOT NULL,
	currency_rate REAL NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS securities (
	symbol TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	industry TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL DEFAULT 'EUR',
	currency_rate REAL NOT NULL DEFAULT 1.0,
	price REAL NOT NULL DEFAULT 0,
	min_lot INTEGER NOT NULL DEFAULT 1,
	active INTEGER NOT NULL DEFAULT 1,
	allow_buy INTEGER NOT NULL DEFAULT 1,
	allow_sell INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS security_scores (
	symbol TEXT PRIMARY KEY,
	total_score REAL NOT NULL DEFAULT 0,
	quality_score REAL NOT NULL DEFAULT 0,
	technical_score REAL NOT NULL DEFAULT 0,
	fundamental_score REAL NOT NULL DEFAULT 0,
	volatility REAL NOT NULL DEFAULT 0,
	historical_volatility REAL NOT NULL DEFAULT 0,
	distance_from_ma200 REAL NOT NULL DEFAULT 0,
	updated_at INTEGER
);

CREATE TABLE IF NOT EXISTS allocation_targets (
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	target_pct REAL NOT NULL,
	PRIMARY KEY (type, name)
);

CREATE TABLE IF NOT EXISTS allocation_groups (
	type TEXT NOT NULL,
	group_name TEXT NOT NULL,
	member TEXT NOT NULL,
	PRIMARY KEY (type, group_name, member)
);

CREATE TABLE IF NOT EXISTS daily_prices (
	symbol TEXT NOT NULL,
	date TEXT NOT NULL,
	close REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
`

const cacheSchema = `
CREATE TABLE IF NOT EXISTS correlation_cache (
	cache_key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`
