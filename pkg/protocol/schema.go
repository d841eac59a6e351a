package protocol

// SchemaDDL defines the SQLite schema for the hexad trajectory database.
// One table: events, the append-only record of everything that flowed
// through a run (messages, status changes, cycle failures, results).
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Trajectory event log: every engine event in arrival order
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL,
    type TEXT NOT NULL,
    sender TEXT,
    receiver TEXT,
    message_type TEXT,
    content TEXT,
    payload TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS events_run_idx ON events (run_id, id);
`
