package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"canvas_ai_server/internal/types"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// PostgresStore keeps versions in the page_state table.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create page_state schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS page_state (
  version INTEGER PRIMARY KEY,
  content TEXT NOT NULL DEFAULT '',
  files JSONB NOT NULL DEFAULT '[]'::jsonb,
  instruction TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`)
	})
	return s.schemaErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (types.PageVersion, error) {
	var (
		p     types.PageVersion
		files []byte
	)
	if err := row.Scan(&p.Version, &p.Content, &files, &p.Instruction, &p.CreatedAt); err != nil {
		return types.PageVersion{}, err
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &p.Files); err != nil {
			return types.PageVersion{}, fmt.Errorf("decode files of version %d: %w", p.Version, err)
		}
	}
	return p, nil
}

func (s *PostgresStore) Latest(ctx context.Context) (types.PageVersion, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT version, content, files, instruction, created_at
FROM page_state ORDER BY version DESC LIMIT 1`)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PageVersion{}, false, nil
	}
	if err != nil {
		return types.PageVersion{}, false, fmt.Errorf("read latest page: %w", err)
	}
	return p, true, nil
}

func (s *PostgresStore) Get(ctx context.Context, version int) (types.PageVersion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT version, content, files, instruction, created_at
FROM page_state WHERE version = $1`, version)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PageVersion{}, ErrNotFound
	}
	if err != nil {
		return types.PageVersion{}, fmt.Errorf("read page version %d: %w", version, err)
	}
	return p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, page types.PageVersion) error {
	if page.Version <= 0 {
		return fmt.Errorf("version must be positive, got %d", page.Version)
	}
	files := page.Files
	if files == nil {
		files = types.FileSet{}
	}
	raw, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO page_state (version, content, files, instruction, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		page.Version, page.Content, string(raw), page.Instruction, page.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert version %d: %w", page.Version, ErrVersionConflict)
		}
		return fmt.Errorf("insert version %d: %w", page.Version, err)
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM page_state WHERE version >= 0`); err != nil {
		return fmt.Errorf("delete page versions: %w", err)
	}
	return nil
}
