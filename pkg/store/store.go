// Package store persists pipeline results and robots verdicts in SQLite.
// Persistence is optional; the pipeline never depends on it.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pagesift/pagesift/models"
)

type Store struct {
	*sql.DB
	path string
}

// Open opens or creates the SQLite database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{DB: sqlDB, path: path}
	if _, err := s.Exec(schema); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// StoredResult is one persisted pipeline run.
type StoredResult struct {
	ID         int64
	URL        string
	FinalURL   string
	Method     string
	Language   string
	WordCount  int
	ChunkCount int
	CreatedAt  time.Time
	Result     models.PipelineResult
}

// SaveResult persists one pipeline result and returns its row id.
func (s *Store) SaveResult(res *models.PipelineResult) (int64, error) {
	blob, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("encode result: %w", err)
	}

	method := ""
	language := res.Metadata.Language
	wordCount := len(strings.Fields(res.Content))
	if res.Stats != nil {
		method = string(res.Stats.Extract.Method)
		if res.Stats.Clean.WordCount > 0 {
			wordCount = res.Stats.Clean.WordCount
		}
	}

	row, err := s.Exec(`
		INSERT INTO results (url, final_url, method, language, word_count, chunk_count, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.OriginalURL, res.URL, method, language, wordCount, len(res.Chunks), string(blob))
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	return row.LastInsertId()
}

// ResultsByURL returns persisted runs for a URL, newest first.
func (s *Store) ResultsByURL(url string, limit int) ([]StoredResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.Query(`
		SELECT result_id, url, final_url, method, language, word_count, chunk_count, created_at, result
		FROM results WHERE url = ? ORDER BY created_at DESC, result_id DESC LIMIT ?`,
		url, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// RecentResults returns the newest persisted runs across all URLs.
func (s *Store) RecentResults(limit int) ([]StoredResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.Query(`
		SELECT result_id, url, final_url, method, language, word_count, chunk_count, created_at, result
		FROM results ORDER BY created_at DESC, result_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]StoredResult, error) {
	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		var blob string
		if err := rows.Scan(&r.ID, &r.URL, &r.FinalURL, &r.Method, &r.Language,
			&r.WordCount, &r.ChunkCount, &r.CreatedAt, &blob); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(blob), &r.Result); err != nil {
			return nil, fmt.Errorf("decode result %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRobotsDecisions upserts per-origin robots verdicts.
func (s *Store) SaveRobotsDecisions(decisions []models.RobotsDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO robots_decisions (origin, allowed, fetched_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(origin) DO UPDATE SET
			allowed = excluded.allowed,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range decisions {
		if _, err := stmt.Exec(d.Origin, d.Allowed, d.FetchedAt, d.ExpiresAt); err != nil {
			return fmt.Errorf("upsert robots decision for %s: %w", d.Origin, err)
		}
	}
	return tx.Commit()
}

// RobotsDecisions returns all persisted robots verdicts.
func (s *Store) RobotsDecisions() ([]models.RobotsDecision, error) {
	rows, err := s.Query(`SELECT origin, allowed, fetched_at, expires_at FROM robots_decisions ORDER BY origin`)
	if err != nil {
		return nil, fmt.Errorf("query robots decisions: %w", err)
	}
	defer rows.Close()

	var out []models.RobotsDecision
	for rows.Next() {
		var d models.RobotsDecision
		if err := rows.Scan(&d.Origin, &d.Allowed, &d.FetchedAt, &d.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan robots decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
