// Package store implements the SQLite-backed audit log behind the
// /status report: refresh cycles and answered messages, metadata only.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sitebot/internal/domain"
)

// SQLiteAudit implements domain.AuditStore.
type SQLiteAudit struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteAudit(dbPath string, logger *slog.Logger) (*SQLiteAudit, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteAudit{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteAudit) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS refresh_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		at          DATETIME NOT NULL,
		status      TEXT NOT NULL,
		chars       INTEGER DEFAULT 0,
		error       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_refresh_at ON refresh_log(at);

	CREATE TABLE IF NOT EXISTS answer_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		at          DATETIME NOT NULL,
		chat_id     TEXT NOT NULL,
		status      TEXT NOT NULL,
		q_len       INTEGER DEFAULT 0,
		latency_ms  INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_answer_at ON answer_log(at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteAudit) RecordRefresh(ctx context.Context, rec domain.RefreshRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_log (at, status, chars, error) VALUES (?, ?, ?, ?)`,
		rec.At, rec.Status, rec.Chars, rec.Error,
	)
	return err
}

func (s *SQLiteAudit) RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answer_log (at, chat_id, status, q_len, latency_ms) VALUES (?, ?, ?, ?, ?)`,
		rec.At, rec.ChatID, rec.Status, rec.QuestionLen, rec.LatencyMs,
	)
	return err
}

// LastRefresh returns the most recent refresh entry, or nil when the log
// is empty.
func (s *SQLiteAudit) LastRefresh(ctx context.Context) (*domain.RefreshRecord, error) {
	var rec domain.RefreshRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT at, status, chars, error FROM refresh_log ORDER BY id DESC LIMIT 1`,
	).Scan(&rec.At, &rec.Status, &rec.Chars, &rec.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteAudit) AnswerCounts(ctx context.Context) (ok int64, failed int64, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM answer_log GROUP BY status`)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		if status == "ok" {
			ok = n
		} else {
			failed += n
		}
	}
	return ok, failed, rows.Err()
}

func (s *SQLiteAudit) Close() error {
	return s.db.Close()
}
