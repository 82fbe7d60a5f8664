package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id           TEXT PRIMARY KEY,
    email        TEXT NOT NULL UNIQUE,
    display_name TEXT,
    created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS credentials (
    account_id  TEXT PRIMARY KEY,
    blob        BLOB NOT NULL,
    updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS emails (
    id            INTEGER PRIMARY KEY,
    account_id    TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    gmail_id      TEXT NOT NULL,
    subject       TEXT NOT NULL DEFAULT '',
    sender_name   TEXT NOT NULL DEFAULT '',
    sender_email  TEXT NOT NULL DEFAULT '',
    received_at   DATETIME NOT NULL,
    content_type  TEXT NOT NULL DEFAULT '',
    size_estimate INTEGER NOT NULL DEFAULT -1,
    importance    INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (account_id, gmail_id)
);

CREATE TABLE IF NOT EXISTS labels (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS email_labels (
    email_id INTEGER NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
    label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
    PRIMARY KEY (email_id, label_id)
);

CREATE TABLE IF NOT EXISTS sync_runs (
    id          INTEGER PRIMARY KEY,
    account_id  TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME NOT NULL,
    fetched     INTEGER NOT NULL DEFAULT 0,
    created     INTEGER NOT NULL DEFAULT 0,
    updated     INTEGER NOT NULL DEFAULT 0,
    errors      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_emails_account ON emails(account_id);
CREATE INDEX IF NOT EXISTS idx_emails_received ON emails(received_at DESC);
CREATE INDEX IF NOT EXISTS idx_email_labels_label ON email_labels(label_id);
CREATE INDEX IF NOT EXISTS idx_sync_runs_account ON sync_runs(account_id, finished_at DESC);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS emails_fts USING fts5(
    subject, sender_name, sender_email,
    content='emails', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS emails_ai AFTER INSERT ON emails BEGIN
    INSERT INTO emails_fts(rowid, subject, sender_name, sender_email)
    VALUES (new.id, new.subject, new.sender_name, new.sender_email);
END;

CREATE TRIGGER IF NOT EXISTS emails_ad AFTER DELETE ON emails BEGIN
    INSERT INTO emails_fts(emails_fts, rowid, subject, sender_name, sender_email)
    VALUES ('delete', old.id, old.subject, old.sender_name, old.sender_email);
END;

CREATE TRIGGER IF NOT EXISTS emails_au AFTER UPDATE ON emails BEGIN
    INSERT INTO emails_fts(emails_fts, rowid, subject, sender_name, sender_email)
    VALUES ('delete', old.id, old.subject, old.sender_name, old.sender_email);
    INSERT INTO emails_fts(rowid, subject, sender_name, sender_email)
    VALUES (new.id, new.subject, new.sender_name, new.sender_email);
END;
`
