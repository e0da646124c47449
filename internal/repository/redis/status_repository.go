package redis

import (
	"context"
	"encoding/json"
	"fmt"

	r "github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
)

// statusRepository keeps status checks as JSON entries of one Redis list per namespace.
type statusRepository struct {
	client *r.Client
	key    string
}

// Connect parses a redis:// DSN and verifies the server answers.
func Connect(ctx context.Context, dsn string) (*r.Client, error) {
	opts, err := r.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis dsn: %w", err)
	}

	client := r.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis server: %w", err)
	}

	zlog.Logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Redis connection established")
	return client, nil
}

func NewStatusRepository(client *r.Client, namespace string) domain.StatusRepository {
	return &statusRepository{
		client: client,
		key:    namespace + ":status_checks",
	}
}

func (s *statusRepository) Create(ctx context.Context, check *domain.StatusCheck) error {
	data, err := json.Marshal(check)
	if err != nil {
		return fmt.Errorf("marshal status check: %w", err)
	}

	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		zlog.Logger.Error().Err(err).Str("status_id", check.ID).Msg("failed to create status check")
		return fmt.Errorf("create status check: %w", err)
	}
	return nil
}

func (s *statusRepository) List(ctx context.Context, limit int) ([]*domain.StatusCheck, error) {
	if limit <= 0 {
		return []*domain.StatusCheck{}, nil
	}

	items, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list status checks")
		return nil, fmt.Errorf("list status checks: %w", err)
	}

	checks := make([]*domain.StatusCheck, 0, len(items))
	for _, item := range items {
		var c domain.StatusCheck
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			zlog.Logger.Warn().Err(err).Str("key", s.key).Msg("skipping malformed status check")
			continue
		}
		checks = append(checks, &c)
	}
	return checks, nil
}

func (s *statusRepository) Close() error {
	return s.client.Close()
}
