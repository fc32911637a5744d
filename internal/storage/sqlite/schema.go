package sqlite

// Amounts are TEXT: NUMERIC affinity would round values beyond int64.
const schema = `
CREATE TABLE IF NOT EXISTS tokens (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  denom       TEXT NOT NULL UNIQUE,
  created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pairs (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  token0_id   INTEGER NOT NULL REFERENCES tokens(id),
  token1_id   INTEGER NOT NULL REFERENCES tokens(id),
  created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(token0_id, token1_id)
);

CREATE TABLE IF NOT EXISTS blocks (
  height      INTEGER PRIMARY KEY,
  block_time  TEXT
);

CREATE TABLE IF NOT EXISTS txs (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  height      INTEGER NOT NULL REFERENCES blocks(height),
  tx_index    INTEGER NOT NULL,
  tx_hash     TEXT NOT NULL,
  code        INTEGER NOT NULL,
  codespace   TEXT NOT NULL DEFAULT '',
  info        TEXT NOT NULL DEFAULT '',
  log         TEXT NOT NULL DEFAULT '',
  gas_wanted  INTEGER NOT NULL DEFAULT 0,
  gas_used    INTEGER NOT NULL DEFAULT 0,
  UNIQUE(height, tx_index)
);

CREATE TABLE IF NOT EXISTS tx_msgs (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  tx_id        INTEGER NOT NULL REFERENCES txs(id),
  event_index  INTEGER NOT NULL,
  action       TEXT NOT NULL,
  module       TEXT NOT NULL DEFAULT '',
  sender       TEXT NOT NULL DEFAULT '',
  UNIQUE(tx_id, event_index)
);

CREATE TABLE IF NOT EXISTS tx_events (
  height       INTEGER NOT NULL,
  tx_index     INTEGER NOT NULL,
  event_index  INTEGER NOT NULL,
  tx_id        INTEGER NOT NULL REFERENCES txs(id),
  msg_id       INTEGER REFERENCES tx_msgs(id),
  type         TEXT NOT NULL,
  attributes   TEXT NOT NULL,
  PRIMARY KEY(height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_deposit_lp (
  height         INTEGER NOT NULL,
  tx_index       INTEGER NOT NULL,
  event_index    INTEGER NOT NULL,
  pair_id        INTEGER NOT NULL REFERENCES pairs(id),
  creator        TEXT NOT NULL,
  receiver       TEXT NOT NULL,
  tick_index     INTEGER NOT NULL,
  fee            INTEGER NOT NULL,
  reserves0      TEXT NOT NULL,
  reserves1      TEXT NOT NULL,
  shares_minted  TEXT NOT NULL,
  PRIMARY KEY(height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_withdraw_lp (
  height          INTEGER NOT NULL,
  tx_index        INTEGER NOT NULL,
  event_index     INTEGER NOT NULL,
  pair_id         INTEGER NOT NULL REFERENCES pairs(id),
  creator         TEXT NOT NULL,
  receiver        TEXT NOT NULL,
  tick_index      INTEGER NOT NULL,
  fee             INTEGER NOT NULL,
  reserves0       TEXT NOT NULL,
  reserves1       TEXT NOT NULL,
  shares_removed  TEXT NOT NULL,
  PRIMARY KEY(height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_place_limit_order (
  height       INTEGER NOT NULL,
  tx_index     INTEGER NOT NULL,
  event_index  INTEGER NOT NULL,
  pair_id      INTEGER NOT NULL REFERENCES pairs(id),
  token_in_id  INTEGER NOT NULL REFERENCES tokens(id),
  creator      TEXT NOT NULL,
  receiver     TEXT NOT NULL,
  amount_in    TEXT NOT NULL,
  limit_tick   INTEGER NOT NULL,
  order_type   TEXT NOT NULL,
  shares       TEXT NOT NULL,
  tranche_key  TEXT NOT NULL,
  PRIMARY KEY(height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS event_tick_update (
  height       INTEGER NOT NULL,
  tx_index     INTEGER NOT NULL,
  event_index  INTEGER NOT NULL,
  pair_id      INTEGER NOT NULL REFERENCES pairs(id),
  token_id     INTEGER NOT NULL REFERENCES tokens(id),
  tick_index   INTEGER NOT NULL,
  reserves     TEXT NOT NULL,
  fee          INTEGER,
  tranche_key  TEXT NOT NULL DEFAULT '',
  PRIMARY KEY(height, tx_index, event_index)
);

CREATE TABLE IF NOT EXISTS tick_state (
  pair_id           INTEGER NOT NULL REFERENCES pairs(id),
  token_id          INTEGER NOT NULL REFERENCES tokens(id),
  tick_index        INTEGER NOT NULL,
  reserves          TEXT NOT NULL,
  fee               INTEGER,
  price             TEXT NOT NULL,
  last_height       INTEGER NOT NULL,
  last_tx_index     INTEGER NOT NULL,
  last_event_index  INTEGER NOT NULL,
  updated_at        TEXT NOT NULL,
  PRIMARY KEY(pair_id, token_id, tick_index)
);

CREATE TABLE IF NOT EXISTS indexer_state (
  name        TEXT PRIMARY KEY,
  height      INTEGER NOT NULL,
  tx_index    INTEGER NOT NULL,
  tx_hash     TEXT NOT NULL,
  updated_at  TEXT NOT NULL
);
`
