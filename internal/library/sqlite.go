// Package library stores canonical documents in a local SQLite database.
package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jherman/bibflow/internal/document"
)

// DB wraps a SQLite document library.
type DB struct {
	db *sql.DB
}

// Open opens or creates a library at the given path, creating parent
// directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}

	// SQLite doesn't support concurrent writes.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the tables if they don't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			ref TEXT PRIMARY KEY,
			title TEXT,
			author TEXT,
			doi TEXT,
			fields_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_doi ON documents(doi)
			WHERE doi IS NOT NULL AND doi != '';
	`
	_, err := db.Exec(schema)
	return err
}

// Save upserts a document, keyed by its ref. Documents without a ref are
// rejected.
func (d *DB) Save(doc *document.Document) error {
	ref := doc.Ref()
	if ref == "" {
		return fmt.Errorf("document has no ref key")
	}

	fields, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", ref, err)
	}

	_, err = d.db.Exec(`
		INSERT INTO documents (ref, title, author, doi, fields_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			doi = excluded.doi,
			fields_json = excluded.fields_json
	`, ref, doc.String(document.KeyTitle), doc.String(document.KeyAuthor),
		doc.String(document.KeyDOI), string(fields))
	if err != nil {
		return fmt.Errorf("saving document %s: %w", ref, err)
	}

	return nil
}

// SaveAll upserts documents in one transaction.
func (d *DB) SaveAll(docs []*document.Document) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO documents (ref, title, author, doi, fields_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			doi = excluded.doi,
			fields_json = excluded.fields_json
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		ref := doc.Ref()
		if ref == "" {
			return fmt.Errorf("document has no ref key")
		}
		fields, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", ref, err)
		}
		if _, err := stmt.Exec(ref, doc.String(document.KeyTitle),
			doc.String(document.KeyAuthor), doc.String(document.KeyDOI),
			string(fields)); err != nil {
			return fmt.Errorf("saving document %s: %w", ref, err)
		}
	}

	return tx.Commit()
}

// GetByRef returns the document with the given ref, or nil if absent.
func (d *DB) GetByRef(ref string) (*document.Document, error) {
	row := d.db.QueryRow(`SELECT fields_json FROM documents WHERE ref = ?`, ref)
	var fields string
	if err := row.Scan(&fields); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting document %s: %w", ref, err)
	}
	return decodeFields(fields)
}

// GetByDOI returns the first document with the given DOI, or nil if absent.
func (d *DB) GetByDOI(doi string) (*document.Document, error) {
	row := d.db.QueryRow(`SELECT fields_json FROM documents WHERE doi = ? LIMIT 1`, doi)
	var fields string
	if err := row.Scan(&fields); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("getting document by doi %s: %w", doi, err)
	}
	return decodeFields(fields)
}

// Query returns documents matching the search term. "key:value" terms
// match one field; bare terms match title, author, or ref as a substring.
// An empty or "." query returns everything.
func (d *DB) Query(q string) ([]*document.Document, error) {
	q = strings.TrimSpace(q)

	var rows *sql.Rows
	var err error
	var key, value string
	keyed := false

	switch {
	case q == "" || q == ".":
		rows, err = d.db.Query(`SELECT fields_json FROM documents ORDER BY ref`)
	case strings.Contains(q, ":"):
		// Match against the decoded field, so "title:x" never matches an
		// x that happens to occur under some other key in the JSON blob.
		key, value, _ = strings.Cut(q, ":")
		keyed = true
		rows, err = d.db.Query(`SELECT fields_json FROM documents ORDER BY ref`)
	default:
		like := "%" + q + "%"
		rows, err = d.db.Query(`
			SELECT fields_json FROM documents
			WHERE title LIKE ? OR author LIKE ? OR ref LIKE ?
			ORDER BY ref`, like, like, like)
	}
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc, err := decodeFields(fields)
		if err != nil {
			return nil, err
		}
		if keyed && !containsFold(doc.String(key), value) {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// containsFold is a case-insensitive substring test, the same matching the
// filter stage applies in memory.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

// Count returns the number of stored documents.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func decodeFields(fields string) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal([]byte(fields), &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}
