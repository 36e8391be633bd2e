package storage

const schema = `
CREATE TABLE IF NOT EXISTS site (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    status TEXT NOT NULL,
    status_time DATETIME NOT NULL,
    last_error TEXT NOT NULL DEFAULT '',
    url TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS page (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL REFERENCES site(id),
    path TEXT NOT NULL,
    code INTEGER NOT NULL,
    content TEXT NOT NULL,
    UNIQUE (site_id, path)
);
CREATE INDEX IF NOT EXISTS idx_page_path ON page(path);

CREATE TABLE IF NOT EXISTS lemma (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL REFERENCES site(id),
    lemma TEXT NOT NULL,
    frequency INTEGER NOT NULL,
    UNIQUE (site_id, lemma)
);

-- Inverted index: one row per (page, lemma), rank = occurrences in the page.
CREATE TABLE IF NOT EXISTS search_index (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER NOT NULL REFERENCES page(id),
    lemma_id INTEGER NOT NULL REFERENCES lemma(id),
    rank REAL NOT NULL,
    UNIQUE (page_id, lemma_id)
);
CREATE INDEX IF NOT EXISTS idx_search_index_lemma ON search_index(lemma_id);
`
