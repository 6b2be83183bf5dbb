package store

// Schema v1 - Initial catalog schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Audiobook catalog
CREATE TABLE IF NOT EXISTS books (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  author TEXT,
  narrator TEXT,
  file_path TEXT UNIQUE NOT NULL,
  file_size INTEGER,
  format TEXT,
  duration_hours REAL,
  content_hash TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_books_title ON books(title);
CREATE INDEX IF NOT EXISTS idx_books_author ON books(author);
CREATE INDEX IF NOT EXISTS idx_books_content_hash ON books(content_hash);

-- Genre/era/topic taxonomies and their book links
CREATE TABLE IF NOT EXISTS genres (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS book_genres (
  book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
  genre_id INTEGER REFERENCES genres(id) ON DELETE CASCADE,
  PRIMARY KEY (book_id, genre_id)
);

CREATE TABLE IF NOT EXISTS eras (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS book_eras (
  book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
  era_id INTEGER REFERENCES eras(id) ON DELETE CASCADE,
  PRIMARY KEY (book_id, era_id)
);

CREATE TABLE IF NOT EXISTS topics (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS book_topics (
  book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
  topic_id INTEGER REFERENCES topics(id) ON DELETE CASCADE,
  PRIMARY KEY (book_id, topic_id)
);

-- Supplementary files attached to a book (PDFs, cover art)
CREATE TABLE IF NOT EXISTS supplements (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  book_id INTEGER REFERENCES books(id) ON DELETE CASCADE,
  file_path TEXT NOT NULL,
  kind TEXT
);

CREATE INDEX IF NOT EXISTS idx_supplements_book_id ON supplements(book_id);
`

// Schema v2 - Performance indexes for association lookups
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_book_genres_book_id ON book_genres(book_id);
CREATE INDEX IF NOT EXISTS idx_book_eras_book_id ON book_eras(book_id);
CREATE INDEX IF NOT EXISTS idx_book_topics_book_id ON book_topics(book_id);
CREATE INDEX IF NOT EXISTS idx_books_format ON books(format);
`
