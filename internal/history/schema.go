package history

const schema = `
-- One row per completed review session.
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    ended_at DATETIME NOT NULL,
    cards_reviewed INTEGER NOT NULL,
    again INTEGER NOT NULL DEFAULT 0,
    hard INTEGER NOT NULL DEFAULT 0,
    good INTEGER NOT NULL DEFAULT 0,
    easy INTEGER NOT NULL DEFAULT 0,
    files TEXT NOT NULL
);

-- One row per card reviewed, linked to its session.
CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL,
    question_id TEXT NOT NULL,
    source_file TEXT NOT NULL,
    rating INTEGER NOT NULL,
    old_interval INTEGER NOT NULL,
    new_interval INTEGER NOT NULL,

    FOREIGN KEY(session_id) REFERENCES sessions(id)
);
`
