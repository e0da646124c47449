package usecase

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
)

type StatusUsecase struct {
	repo domain.StatusRepository
}

func NewStatusUsecase(repo domain.StatusRepository) *StatusUsecase {
	return &StatusUsecase{repo: repo}
}

func (u *StatusUsecase) Create(ctx context.Context, clientName string) (*domain.StatusCheck, error) {
	check := domain.NewStatusCheck(clientName)
	if err := u.repo.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("save status check: %w", err)
	}

	zlog.Logger.Info().
		Str("status_id", check.ID).
		Str("client_name", check.ClientName).
		Msg("status check recorded")
	return check, nil
}

// List returns at most domain.StatusListLimit records.
func (u *StatusUsecase) List(ctx context.Context) ([]*domain.StatusCheck, error) {
	checks, err := u.repo.List(ctx, domain.StatusListLimit)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	if len(checks) > domain.StatusListLimit {
		checks = checks[:domain.StatusListLimit]
	}
	return checks, nil
}
