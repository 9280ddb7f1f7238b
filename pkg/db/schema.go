package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- URLs table: normalized URL components of every analyzed page
CREATE TABLE IF NOT EXISTS urls (
    url_id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_url TEXT NOT NULL UNIQUE,
    canonical_url TEXT,
    scheme TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT,
    fragment TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);
CREATE INDEX IF NOT EXISTS idx_urls_canonical ON urls(canonical_url);

-- Runs: one row per engine run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    corpus_fingerprint TEXT NOT NULL,
    extraction_method TEXT NOT NULL,
    config TEXT,                  -- JSON encoded models.Config
    pages_analyzed INTEGER NOT NULL,
    pages_skipped INTEGER DEFAULT 0,
    intent_count INTEGER DEFAULT 0,
    degraded_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(corpus_fingerprint);

-- Run methods: status of every discovery method within a run
CREATE TABLE IF NOT EXISTS run_methods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    method TEXT NOT NULL,
    status TEXT NOT NULL,         -- ok, degraded, disabled
    reason TEXT,
    candidates INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, method)
);

CREATE INDEX IF NOT EXISTS idx_run_methods_run ON run_methods(run_id);

-- Intents: emitted intents of a run, in output order
CREATE TABLE IF NOT EXISTS intents (
    intent_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    display_label TEXT,
    confidence REAL NOT NULL,
    page_count INTEGER NOT NULL,
    extraction_method TEXT NOT NULL,
    keywords TEXT,                -- JSON array
    phrases TEXT,                 -- JSON array
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, name)
);

CREATE INDEX IF NOT EXISTS idx_intents_run ON intents(run_id);
CREATE INDEX IF NOT EXISTS idx_intents_name ON intents(name);

-- Intent pages: junction table mapping intents to URLs
CREATE TABLE IF NOT EXISTS intent_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    intent_id INTEGER NOT NULL,
    url_id INTEGER NOT NULL,
    FOREIGN KEY (intent_id) REFERENCES intents(intent_id) ON DELETE CASCADE,
    FOREIGN KEY (url_id) REFERENCES urls(url_id),
    UNIQUE(intent_id, url_id)
);

CREATE INDEX IF NOT EXISTS idx_intent_pages_intent ON intent_pages(intent_id);
CREATE INDEX IF NOT EXISTS idx_intent_pages_url ON intent_pages(url_id);

-- Run pages: every analyzed page of a run with its site section
CREATE TABLE IF NOT EXISTS run_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    url_id INTEGER NOT NULL,
    section TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    FOREIGN KEY (url_id) REFERENCES urls(url_id),
    UNIQUE(run_id, url_id)
);

CREATE INDEX IF NOT EXISTS idx_run_pages_run ON run_pages(run_id);
`
