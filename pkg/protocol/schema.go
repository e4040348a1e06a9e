package protocol

// SchemaDDL defines the SQLite schema for the warden state database.
// Tables: documents (versioned JSON blobs), events (append-only audit log).
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Versioned coordination documents, rewritten in full on every mutation.
-- The version column is the optimistic-concurrency token: writers update
-- WHERE version matches and retry on conflict.
CREATE TABLE IF NOT EXISTS documents (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Append-only audit log: acquisitions, releases, force releases,
-- escalations, document recoveries.
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY,
    type TEXT NOT NULL,
    agent_id TEXT,
    subject TEXT,
    detail TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_events_agent ON events(agent_id);
`
