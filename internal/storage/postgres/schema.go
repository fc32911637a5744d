package postgres

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	id         BIGSERIAL PRIMARY KEY,
	denom      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pairs (
	id         BIGSERIAL PRIMARY KEY,
	token0_id  BIGINT NOT NULL REFERENCES tokens (id),
	token1_id  BIGINT NOT NULL REFERENCES tokens (id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (token0_id, token1_id)
);

CREATE TABLE IF NOT EXISTS blocks (
	height     BIGINT PRIMARY KEY,
	block_time TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS txs (
	id         BIGSERIAL PRIMARY KEY,
	height     BIGINT NOT NULL REFERENCES blocks (height),
	tx_index   INTEGER NOT NULL,
	tx_hash    TEXT NOT NULL,
	code       BIGINT NOT NULL,
	codespace  TEXT NOT NULL DEFAULT '',
	info       TEXT NOT NULL DEFAULT '',
	log        TEXT NOT NULL DEFAULT '',
	gas_wanted BIGINT NOT NULL DEFAULT 0,
	gas_used   BIGINT NOT NULL DEFAULT 0,
	UNIQUE (height, tx_index)
);

CREATE TABLE IF NOT EXISTS tx_msgs (
	id          BIGSERIAL PRIMARY KEY,
	tx_id       BIGINT NOT NULL REFERENCES txs (id),
	event_index INTEGER NOT NULL,
	action      TEXT NOT NULL,
	module      TEXT NOT NULL DEFAULT '',
	sender      TEXT NOT NULL DEFAULT '',
	UNIQUE (tx_id, event_index)
);

CREATE TABLE IF NOT EXISTS tx_events (
	height      BIGINT NOT NULL,
	tx_index    INTEGER NOT NULL,
	event_index INTEGER NOT NULL,
	tx_id       BIGINT NOT NULL REFERENCES txs (id),
	msg_id      BIGINT REFERENCES tx_msgs (id),
	type        TEXT NOT NULL,
	attributes  JSONB NOT NULL,
	PRIMARY KEY (height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_deposit_lp (
	height        BIGINT NOT NULL,
	tx_index      INTEGER NOT NULL,
	event_index   INTEGER NOT NULL,
	pair_id       BIGINT NOT NULL REFERENCES pairs (id),
	creator       TEXT NOT NULL,
	receiver      TEXT NOT NULL,
	tick_index    BIGINT NOT NULL,
	fee           BIGINT NOT NULL,
	reserves0     NUMERIC NOT NULL,
	reserves1     NUMERIC NOT NULL,
	shares_minted NUMERIC NOT NULL,
	PRIMARY KEY (height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_withdraw_lp (
	height         BIGINT NOT NULL,
	tx_index       INTEGER NOT NULL,
	event_index    INTEGER NOT NULL,
	pair_id        BIGINT NOT NULL REFERENCES pairs (id),
	creator        TEXT NOT NULL,
	receiver       TEXT NOT NULL,
	tick_index     BIGINT NOT NULL,
	fee            BIGINT NOT NULL,
	reserves0      NUMERIC NOT NULL,
	reserves1      NUMERIC NOT NULL,
	shares_removed NUMERIC NOT NULL,
	PRIMARY KEY (height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_place_limit_order (
	height      BIGINT NOT NULL,
	tx_index    INTEGER NOT NULL,
	event_index INTEGER NOT NULL,
	pair_id     BIGINT NOT NULL REFERENCES pairs (id),
	token_in_id BIGINT NOT NULL REFERENCES tokens (id),
	creator     TEXT NOT NULL,
	receiver    TEXT NOT NULL,
	amount_in   NUMERIC NOT NULL,
	limit_tick  BIGINT NOT NULL,
	order_type  TEXT NOT NULL,
	shares      NUMERIC NOT NULL,
	tranche_key TEXT NOT NULL,
	PRIMARY KEY (height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_tick_update (
	height      BIGINT NOT NULL,
	tx_index    INTEGER NOT NULL,
	event_index INTEGER NOT NULL,
	pair_id     BIGINT NOT NULL REFERENCES pairs (id),
	token_id    BIGINT NOT NULL REFERENCES tokens (id),
	tick_index  BIGINT NOT NULL,
	reserves    NUMERIC NOT NULL,
	fee         BIGINT,
	tranche_key TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS tick_state (
	pair_id          BIGINT NOT NULL REFERENCES pairs (id),
	token_id         BIGINT NOT NULL REFERENCES tokens (id),
	tick_index       BIGINT NOT NULL,
	reserves         NUMERIC NOT NULL,
	fee              BIGINT,
	price            NUMERIC NOT NULL,
	last_height      BIGINT NOT NULL,
	last_tx_index    INTEGER NOT NULL,
	last_event_index INTEGER NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pair_id, token_id, tick_index)
);

CREATE TABLE IF NOT EXISTS indexer_state (
	name       TEXT PRIMARY KEY,
	height     BIGINT NOT NULL,
	tx_index   INTEGER NOT NULL,
	tx_hash    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
