// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore keeps every document retrieved during a run in a local
// SQLite database with an FTS5 index. When the search API falls short of
// the target candidate count for a question, the pipeline supplements the
// list from here: documents retrieved for earlier questions are often
// relevant to later ones in the same corpus.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/submission-engine/pkg/types"
)

// Store is the session-scoped document database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open creates or opens the store. An empty path selects an in-memory
// database scoped to the process.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}
	// A single connection keeps the in-memory database alive and is
	// sufficient for the sequential pipeline.
	db.SetMaxOpenConns(1)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			cn TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			source_url TEXT
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			cn UNINDEXED,
			title,
			abstract
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts documents not yet present, keyed by control number, and
// returns how many were newly added. Documents without a CN are skipped.
func (s *Store) Add(ctx context.Context, docs []types.Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, d := range docs {
		if d.CN == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO documents (cn, title, abstract, source_url) VALUES (?, ?, ?, ?)`,
			d.CN, d.Title, d.Abstract, d.SourceURL)
		if err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", d.CN, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking insert of %s: %w", d.CN, err)
		}
		if n == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents_fts (cn, title, abstract) VALUES (?, ?, ?)`,
			d.CN, d.Title, d.Abstract); err != nil {
			return 0, fmt.Errorf("indexing document %s: %w", d.CN, err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing documents: %w", err)
	}
	return added, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Search returns stored documents lexically matching the question, best
// match first, skipping any control number in exclude. A question with no
// indexable tokens returns no documents.
func (s *Store) Search(ctx context.Context, question string, exclude map[string]bool) ([]types.Document, error) {
	match := buildMatchQuery(question)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.cn, d.title, d.abstract, d.source_url
		FROM documents_fts f
		JOIN documents d ON d.cn = f.cn
		WHERE documents_fts MATCH ?
		ORDER BY bm25(documents_fts)
		LIMIT ?`, match, s.maxResults+len(exclude))
	if err != nil {
		return nil, fmt.Errorf("querying document store: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var d types.Document
		if err := rows.Scan(&d.CN, &d.Title, &d.Abstract, &d.SourceURL); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		if exclude[d.CN] {
			continue
		}
		docs = append(docs, d)
		if len(docs) == s.maxResults {
			break
		}
	}
	return docs, rows.Err()
}

// buildMatchQuery turns free question text into an FTS5 OR-query of quoted
// tokens. Quoting sidesteps FTS5 operator syntax in user text.
func buildMatchQuery(question string) string {
	toks := strings.FieldsFunc(question, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var quoted []string
	seen := make(map[string]bool)
	for _, tok := range toks {
		if len([]rune(tok)) < 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		quoted = append(quoted, `"`+tok+`"`)
		if len(quoted) == 12 {
			break
		}
	}
	return strings.Join(quoted, " OR ")
}
