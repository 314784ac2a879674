package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mobtime/internal/modules/session/domain"
	sessionout "mobtime/internal/modules/session/port/out"

	_ "modernc.org/sqlite"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(dbPath string) (*SQLiteHistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteHistoryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

var _ sessionout.HistoryStore = (*SQLiteHistoryStore)(nil)

func (s *SQLiteHistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rotations (
  id TEXT PRIMARY KEY,
  rotated_at TEXT NOT NULL,
  previous TEXT NOT NULL,
  next TEXT NOT NULL,
  elapsed_seconds INTEGER NOT NULL,
  schema_version INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS rotations_rotated_at ON rotations(rotated_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create rotations table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Record(ctx context.Context, record domain.RotationRecord) error {
	const stmt = `
INSERT INTO rotations (id, rotated_at, previous, next, elapsed_seconds, schema_version)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	_, err := s.db.ExecContext(ctx, stmt,
		record.ID,
		record.RotatedAt.UTC().Format(timestampLayout),
		record.Previous,
		record.Next,
		record.ElapsedSeconds,
		domain.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("record rotation: %w", err)
	}
	return nil
}

// List returns the most recent rotations first. A limit of zero returns all.
func (s *SQLiteHistoryStore) List(ctx context.Context, limit int) ([]domain.RotationRecord, error) {
	query := `SELECT id, rotated_at, previous, next, elapsed_seconds FROM rotations ORDER BY rotated_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rotations: %w", err)
	}
	defer rows.Close()

	records := []domain.RotationRecord{}
	for rows.Next() {
		var (
			record    domain.RotationRecord
			rotatedAt string
		)
		if err := rows.Scan(&record.ID, &rotatedAt, &record.Previous, &record.Next, &record.ElapsedSeconds); err != nil {
			return nil, fmt.Errorf("scan rotation: %w", err)
		}
		record.RotatedAt, err = time.Parse(timestampLayout, rotatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse rotated_at %q: %w", rotatedAt, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rotations: %w", err)
	}
	return records, nil
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}
