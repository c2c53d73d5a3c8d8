package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mock-interview/internal/interview"

	_ "modernc.org/sqlite"
)

// timeLayout фиксированной ширины, чтобы ORDER BY по строке совпадал с порядком времени
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore хранит сессии в двух таблицах: sessions и rounds
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает базу по пути dbPath и создает схему
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rounds (
  session_id TEXT NOT NULL,
  idx INTEGER NOT NULL,
  question_id TEXT NOT NULL,
  question_text TEXT NOT NULL,
  secondary_language INTEGER NOT NULL,
  transcription TEXT NOT NULL,
  feedback TEXT NOT NULL,
  audio_artifact BLOB,
  audio_mime_type TEXT,
  text_artifact TEXT,
  skipped INTEGER NOT NULL,
  fallback INTEGER NOT NULL,
  PRIMARY KEY (session_id, idx),
  FOREIGN KEY (session_id) REFERENCES sessions(id)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Save записывает сессию в одной транзакции; повторное сохранение заменяет раунды
func (s *SQLiteStore) Save(ctx context.Context, session *interview.Session) (err error) {
	if session == nil || session.ID == "" {
		return errors.New("session has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
INSERT INTO sessions (id, created_at) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET created_at=excluded.created_at;`,
		session.ID, session.CreatedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rounds WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("reset rounds: %w", err)
	}

	const stmt = `
INSERT INTO rounds (session_id, idx, question_id, question_text, secondary_language, transcription, feedback, audio_artifact, audio_mime_type, text_artifact, skipped, fallback)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	for _, r := range session.Rounds {
		if _, err = tx.ExecContext(ctx, stmt,
			session.ID, r.Index, r.QuestionID, r.QuestionText, boolToInt(r.SecondaryLanguage),
			r.Transcription, r.Feedback, nullBytes(r.AudioArtifact), r.AudioMimeType, r.TextArtifact,
			boolToInt(r.Skipped), boolToInt(r.Fallback),
		); err != nil {
			return fmt.Errorf("insert round %d: %w", r.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load читает сессию с раундами в порядке индекса
func (s *SQLiteStore) Load(ctx context.Context, id string) (*interview.Session, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM sessions WHERE id = ?`, id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session := &interview.Session{ID: id}
	if session.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT idx, question_id, question_text, secondary_language, transcription, feedback,
       audio_artifact, COALESCE(audio_mime_type, ''), COALESCE(text_artifact, ''), skipped, fallback
FROM rounds WHERE session_id = ? ORDER BY idx ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r interview.RoundResult
		var secondary, skipped, fallback int
		if err := rows.Scan(&r.Index, &r.QuestionID, &r.QuestionText, &secondary, &r.Transcription, &r.Feedback,
			&r.AudioArtifact, &r.AudioMimeType, &r.TextArtifact, &skipped, &fallback); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.SecondaryLanguage = secondary != 0
		r.Skipped = skipped != 0
		r.Fallback = fallback != 0
		if len(r.AudioArtifact) == 0 {
			r.AudioArtifact = nil
		}
		session.Rounds = append(session.Rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return session, nil
}

// List возвращает сводки, новые первыми
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.id, s.created_at,
       COALESCE(COUNT(r.idx), 0) AS rounds,
       COALESCE(SUM(CASE WHEN r.skipped = 0 THEN 1 ELSE 0 END), 0) AS answered
FROM sessions s
LEFT JOIN rounds r ON s.id = r.session_id
GROUP BY s.id
ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var createdAt string
		if err := rows.Scan(&sum.ID, &createdAt, &sum.Rounds, &sum.Answered); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return summaries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
