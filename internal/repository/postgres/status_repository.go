package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/infrastructure/database"
)

// DefaultStrategy retries transient store failures on writes and reads.
var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    200 * time.Millisecond,
	Backoff:  2.0,
}

type statusRepository struct {
	db        *dbpg.DB
	namespace string
	strategy  retry.Strategy
}

func NewStatusRepository(db *dbpg.DB, namespace string, strategy retry.Strategy) domain.StatusRepository {
	return &statusRepository{
		db:        db,
		namespace: namespace,
		strategy:  strategy,
	}
}

func (r *statusRepository) Create(ctx context.Context, check *domain.StatusCheck) error {
	query := `
		INSERT INTO status_checks (id, namespace, client_name, timestamp)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecWithRetry(ctx, r.strategy, query,
		check.ID,
		r.namespace,
		check.ClientName,
		check.Timestamp,
	)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("status_id", check.ID).Msg("failed to create status check")
		return fmt.Errorf("create status check: %w", err)
	}

	zlog.Logger.Debug().Str("status_id", check.ID).Msg("status check created")
	return nil
}

func (r *statusRepository) List(ctx context.Context, limit int) ([]*domain.StatusCheck, error) {
	query := `
		SELECT id, client_name, timestamp
		FROM status_checks
		WHERE namespace = $1
		ORDER BY timestamp
		LIMIT $2
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, r.namespace, limit)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list status checks")
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close()

	checks := make([]*domain.StatusCheck, 0)
	for rows.Next() {
		var c domain.StatusCheck
		if err := rows.Scan(&c.ID, &c.ClientName, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		checks = append(checks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status checks: %w", err)
	}

	return checks, nil
}

func (r *statusRepository) Close() error {
	return database.Close(r.db)
}
