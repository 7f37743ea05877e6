package persist

const signalsSchema = `
CREATE TABLE IF NOT EXISTS trading_signals (
	id         BIGSERIAL PRIMARY KEY,
	cycle_id   TEXT NOT NULL,
	symbols    TEXT NOT NULL,
	action     TEXT NOT NULL,
	confidence TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	reasoning  TEXT NOT NULL DEFAULT '',
	news_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const ordersSchema = `
CREATE TABLE IF NOT EXISTS trading_orders (
	id             BIGSERIAL PRIMARY KEY,
	cycle_id       TEXT NOT NULL,
	order_id       TEXT NOT NULL DEFAULT '',
	symbol         TEXT NOT NULL,
	action         TEXT NOT NULL,
	quantity       INTEGER NOT NULL,
	price          DOUBLE PRECISION NOT NULL,
	estimated_cost DOUBLE PRECISION NOT NULL,
	status         TEXT NOT NULL,
	message        TEXT NOT NULL DEFAULT '',
	executed_at    TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const runsSchema = `
CREATE TABLE IF NOT EXISTS run_history (
	id              BIGSERIAL PRIMARY KEY,
	cycle_id        TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ NOT NULL,
	overall_risk    TEXT NOT NULL,
	news_count      INTEGER NOT NULL,
	recommendations INTEGER NOT NULL,
	quote_count     INTEGER NOT NULL,
	intents         INTEGER NOT NULL,
	executions      INTEGER NOT NULL,
	warnings        TEXT NOT NULL DEFAULT '',
	detail          JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`
