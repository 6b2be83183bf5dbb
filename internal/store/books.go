package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// scanBook scans a book row in SELECT column order
func scanBook(scanner interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	var author, narrator, format, hash sql.NullString
	var size sql.NullInt64
	var duration sql.NullFloat64

	err := scanner.Scan(&b.ID, &b.Title, &author, &narrator, &b.FilePath,
		&size, &format, &duration, &hash, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Author = author.String
	b.Narrator = narrator.String
	b.FileSize = size.Int64
	b.Format = format.String
	b.DurationHours = duration.Float64
	b.ContentHash = hash.String

	return &b, nil
}

const bookColumns = `id, title, author, narrator, file_path, file_size, format, duration_hours, content_hash, created_at, updated_at`

// UpsertBook inserts a book or updates the existing row with the same
// file_path. Returns the book's id.
func (s *Store) UpsertBook(b *Book) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO books (title, author, narrator, file_path, file_size, format, duration_hours, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))
		ON CONFLICT(file_path) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			narrator = excluded.narrator,
			file_size = excluded.file_size,
			format = excluded.format,
			duration_hours = excluded.duration_hours,
			updated_at = CURRENT_TIMESTAMP
	`, b.Title, b.Author, b.Narrator, b.FilePath, b.FileSize, b.Format, b.DurationHours, b.ContentHash)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRow(`SELECT id FROM books WHERE file_path = ?`, b.FilePath).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetBookByID returns a book by id, or nil if it does not exist
func (s *Store) GetBookByID(id int64) (*Book, error) {
	row := s.db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return book, nil
}

// GetBookByPath returns a book by file path, or nil if it does not exist
func (s *Store) GetBookByPath(path string) (*Book, error) {
	row := s.db.QueryRow(`SELECT `+bookColumns+` FROM books WHERE file_path = ?`, path)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return book, nil
}

// GetAllBooks returns every catalog record ordered by id
func (s *Store) GetAllBooks() ([]*Book, error) {
	rows, err := s.db.Query(`SELECT ` + bookColumns + ` FROM books ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// GetBooksWithHash returns records whose content hash has been populated
func (s *Store) GetBooksWithHash() ([]*Book, error) {
	rows, err := s.db.Query(`
		SELECT ` + bookColumns + ` FROM books
		WHERE content_hash IS NOT NULL AND content_hash != ''
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// GetBooksWithoutHash returns records the hashing job has not reached yet
func (s *Store) GetBooksWithoutHash() ([]*Book, error) {
	rows, err := s.db.Query(`
		SELECT ` + bookColumns + ` FROM books
		WHERE content_hash IS NULL OR content_hash = ''
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// ListBooks returns a page of catalog records ordered by id
func (s *Store) ListBooks(limit, offset int) ([]*Book, error) {
	rows, err := s.db.Query(`
		SELECT `+bookColumns+` FROM books
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// CountBooks returns the number of catalog records
func (s *Store) CountBooks() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}

// UpdateContentHash records the content hash for a book
func (s *Store) UpdateContentHash(id int64, hash string) error {
	_, err := s.db.Exec(`
		UPDATE books
		SET content_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, hash, id)

	return err
}

// DeleteBooks removes the given catalog rows and their child associations
// inside the caller's transaction. The caller owns commit/rollback, so a
// failed batch leaves no partial mutation behind.
func (s *Store) DeleteBooks(tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	// Child associations first, then the catalog rows
	childTables := []string{"book_genres", "book_eras", "book_topics", "supplements"}
	for _, table := range childTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE book_id IN (%s)", table, placeholders)
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	query := fmt.Sprintf("DELETE FROM books WHERE id IN (%s)", placeholders)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete books: %w", err)
	}

	return nil
}

// UpsertGenre returns the id of the named genre, creating it if needed
func (s *Store) UpsertGenre(name string) (int64, error) {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO genres (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRow(`SELECT id FROM genres WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// LinkBookGenre associates a book with a genre
func (s *Store) LinkBookGenre(bookID, genreID int64) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO book_genres (book_id, genre_id)
		VALUES (?, ?)
	`, bookID, genreID)

	return err
}

// AddSupplement attaches a supplementary file to a book
func (s *Store) AddSupplement(bookID int64, path, kind string) error {
	_, err := s.db.Exec(`
		INSERT INTO supplements (book_id, file_path, kind)
		VALUES (?, ?, ?)
	`, bookID, path, kind)

	return err
}

// CountSupplements returns the number of supplement rows for a book
func (s *Store) CountSupplements(bookID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM supplements WHERE book_id = ?`, bookID).Scan(&count)
	return count, err
}
