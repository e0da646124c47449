package domain

import (
	"context"
	"io"
)

// BackgroundRemover turns an encoded image into a PNG with an alpha channel.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img ImageBuffer) (ImageBuffer, error)
}

type RemovalService interface {
	RemoveBackground(ctx context.Context, req RemovalRequest) (*RemovalResponse, error)
}

type StatusService interface {
	Create(ctx context.Context, clientName string) (*StatusCheck, error)
	List(ctx context.Context) ([]*StatusCheck, error)
}

// StorageService archives processed images. Errors wrap ErrStorageFailed.
type StorageService interface {
	SaveProcessed(ctx context.Context, filename string, reader io.Reader) (string, error)
}

type EventPublisher interface {
	PublishRemoval(ctx context.Context, event RemovalEvent) error
	Close() error
}
