package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		results TEXT NOT NULL,
		chunk_count INTEGER NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		total_tokens INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS run_documents (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		document_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		title TEXT,
		content_type TEXT,
		strategy TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE TABLE IF NOT EXISTS run_context (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		chunk_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		score REAL NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (run_id, rank)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts run, its documents and its answer context in one transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *models.RunResult) error {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	answer := &models.Answer{}
	if run.Answer != nil {
		answer = run.Answer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, question, answer, results, chunk_count,
		 prompt_tokens, completion_tokens, total_tokens, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.Question, answer.Text, string(results), run.ChunkCount,
		run.Usage.PromptTokens, run.Usage.CompletionTokens, run.Usage.TotalTokens,
		run.Duration, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_documents (run_id, position, document_id, source_url, title, content_type, strategy)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer docStmt.Close()
	for i, d := range run.Documents {
		if _, err := docStmt.ExecContext(ctx, run.ID, i, d.ID, d.SourceURL, d.Title, d.ContentType, d.Strategy); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", i, err)
		}
	}

	ctxStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_context (run_id, rank, chunk_id, document_id, source_url, ordinal, score, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ctxStmt.Close()
	for i, c := range answer.Context {
		ch := c.Chunk
		if _, err := ctxStmt.ExecContext(ctx, run.ID, i+1, ch.ID, ch.DocumentID, ch.SourceURL, ch.Ordinal, c.Score, ch.Content); err != nil {
			return fmt.Errorf("failed to insert context chunk %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// GetRun returns a run by ID with its documents and context. Document text is not stored.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	run := &models.RunResult{Answer: &models.Answer{}}
	var results string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, question, answer, results, chunk_count,
		 prompt_tokens, completion_tokens, total_tokens, duration_ms, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Query, &run.Question, &run.Answer.Text, &results, &run.ChunkCount,
		&run.Usage.PromptTokens, &run.Usage.CompletionTokens, &run.Usage.TotalTokens,
		&run.Duration, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(results), &run.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	run.Answer.Question = run.Question
	run.Answer.Usage = run.Usage

	if run.Documents, err = s.runDocuments(ctx, id); err != nil {
		return nil, err
	}
	if run.Answer.Context, err = s.runContext(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStorage) runDocuments(ctx context.Context, id string) ([]*models.ExtractedDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, source_url, title, content_type, strategy
		 FROM run_documents WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*models.ExtractedDocument, 0)
	for rows.Next() {
		var d models.ExtractedDocument
		var title, contentType, strategy sql.NullString
		if err := rows.Scan(&d.ID, &d.SourceURL, &title, &contentType, &strategy); err != nil {
			return nil, err
		}
		d.Title, d.ContentType, d.Strategy = title.String, contentType.String, strategy.String
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) runContext(ctx context.Context, id string) ([]*models.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, chunk_id, document_id, source_url, ordinal, score, content
		 FROM run_context WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.ScoredChunk, 0)
	for rows.Next() {
		var sc models.ScoredChunk
		var ch models.DocumentChunk
		if err := rows.Scan(&sc.Rank, &ch.ID, &ch.DocumentID, &ch.SourceURL, &ch.Ordinal, &sc.Score, &ch.Content); err != nil {
			return nil, err
		}
		sc.Chunk = &ch
		out = append(out, &sc)
	}
	return out, rows.Err()
}

// ListRuns returns run summaries, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, offset, limit int) ([]*models.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, question, answer, prompt_tokens, completion_tokens, total_tokens, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.RunSummary, 0)
	for rows.Next() {
		var r models.RunSummary
		if err := rows.Scan(&r.ID, &r.Query, &r.Question, &r.Answer,
			&r.Usage.PromptTokens, &r.Usage.CompletionTokens, &r.Usage.TotalTokens, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_documents WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_context WHERE run_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountRuns returns the number of stored runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// TotalUsage returns the token usage summed over all stored runs.
func (s *SQLiteStorage) TotalUsage(ctx context.Context) (models.TokenUsage, error) {
	var u models.TokenUsage
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(total_tokens), 0)
		 FROM runs`).Scan(&u.PromptTokens, &u.CompletionTokens, &u.TotalTokens)
	return u, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
