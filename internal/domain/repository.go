package domain

import "context"

type StatusRepository interface {
	Create(ctx context.Context, check *StatusCheck) error
	List(ctx context.Context, limit int) ([]*StatusCheck, error)
	Close() error
}
