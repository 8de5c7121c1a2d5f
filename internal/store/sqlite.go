package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLitePatternStore persists learned keyword patterns so a restarted
// process keeps its boost corpus. Sessions and scores are never stored here.
type SQLitePatternStore struct {
	db *sql.DB
}

func NewSQLitePatternStore(dataSourceName string) (*SQLitePatternStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLitePatternStore{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLitePatternStore) Close() error {
	return s.db.Close()
}

func (s *SQLitePatternStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS patterns (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_key TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        content_length INTEGER NOT NULL,
        keywords_json TEXT NOT NULL,
        readability REAL NOT NULL,
        topics_json TEXT NOT NULL,
        sentiment TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_patterns_user_key ON patterns (user_key, id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts the pattern and evicts rows beyond the per-key bound,
// oldest first. Both statements run in one transaction so concurrent
// appends for the same key stay within the limit.
func (s *SQLitePatternStore) Append(key string, pattern HistoricalPattern) error {
	keywordsJSON, err := json.Marshal(pattern.SuccessfulKeywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	topicsJSON, err := json.Marshal(pattern.Topics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO patterns (user_key, created_at, content_length, keywords_json, readability, topics_json, sentiment)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key, pattern.Timestamp, pattern.ContentLength, string(keywordsJSON),
		pattern.ReadabilityScore, string(topicsJSON), pattern.Sentiment,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pattern: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM patterns WHERE user_key = ? AND id NOT IN (
            SELECT id FROM patterns WHERE user_key = ? ORDER BY id DESC LIMIT ?
        )`,
		key, key, MaxPatternsPerKey,
	)
	if err != nil {
		return fmt.Errorf("failed to evict old patterns: %w", err)
	}

	return tx.Commit()
}

func (s *SQLitePatternStore) Snapshot(key string) ([]HistoricalPattern, error) {
	rows, err := s.db.Query(
		`SELECT created_at, content_length, keywords_json, readability, topics_json, sentiment
         FROM patterns WHERE user_key = ? ORDER BY id ASC LIMIT ?`,
		key, MaxPatternsPerKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []HistoricalPattern
	for rows.Next() {
		var p HistoricalPattern
		var keywordsJSON, topicsJSON string
		if err := rows.Scan(&p.Timestamp, &p.ContentLength, &keywordsJSON, &p.ReadabilityScore, &topicsJSON, &p.Sentiment); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &p.SuccessfulKeywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &p.Topics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func (s *SQLitePatternStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM patterns").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count patterns: %w", err)
	}
	return count, nil
}
