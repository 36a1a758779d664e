package store

// Schema creates the session tables. Executed on every Open; all statements
// are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    user_id    TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    blob       TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS turn_log (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    thread_id  TEXT NOT NULL,
    turn_kind  TEXT NOT NULL,
    scope      TEXT,
    message    TEXT NOT NULL,
    answer     TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_log_user ON turn_log(user_id, created_at);
`
