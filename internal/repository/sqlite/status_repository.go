package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"
	_ "modernc.org/sqlite"

	"github.com/yokitheyo/bgremover/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS status_checks (
	id TEXT PRIMARY KEY,
	namespace TEXT NOT NULL,
	client_name TEXT NOT NULL,
	timestamp TEXT NOT NULL
)`

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type statusRepository struct {
	db        *sql.DB
	namespace string
}

// Open opens (creating if needed) the sqlite database at dsn and its schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create status_checks table: %w", err)
	}

	zlog.Logger.Info().Str("dsn", dsn).Msg("SQLite store ready")
	return db, nil
}

func NewStatusRepository(db *sql.DB, namespace string) domain.StatusRepository {
	return &statusRepository{db: db, namespace: namespace}
}

func (s *statusRepository) Create(ctx context.Context, check *domain.StatusCheck) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO status_checks (id, namespace, client_name, timestamp) VALUES (?, ?, ?, ?)",
		check.ID, s.namespace, check.ClientName, check.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("status_id", check.ID).Msg("failed to create status check")
		return fmt.Errorf("create status check: %w", err)
	}
	return nil
}

func (s *statusRepository) List(ctx context.Context, limit int) ([]*domain.StatusCheck, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_name, timestamp FROM status_checks WHERE namespace = ? ORDER BY timestamp LIMIT ?",
		s.namespace, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	checks := make([]*domain.StatusCheck, 0)
	for rows.Next() {
		var (
			c  domain.StatusCheck
			ts string
		)
		if err := rows.Scan(&c.ID, &c.ClientName, &ts); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		if c.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp of %s: %w", c.ID, err)
		}
		checks = append(checks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status checks: %w", err)
	}
	return checks, nil
}

func (s *statusRepository) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
