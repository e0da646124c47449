package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/bgremover/internal/domain"
)

type removerFunc func(ctx context.Context, img domain.ImageBuffer) (domain.ImageBuffer, error)

func (f removerFunc) RemoveBackground(ctx context.Context, img domain.ImageBuffer) (domain.ImageBuffer, error) {
	return f(ctx, img)
}

// echoRemover returns a transparent PNG of the input's size.
func echoRemover() removerFunc {
	return func(_ context.Context, img domain.ImageBuffer) (domain.ImageBuffer, error) {
		cfg, _, err := image.DecodeConfig(img.Reader())
		if err != nil {
			return domain.ImageBuffer{}, err
		}
		out := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		var buf bytes.Buffer
		if err := png.Encode(&buf, out); err != nil {
			return domain.ImageBuffer{}, err
		}
		return domain.NewImageBuffer(buf.Bytes()), nil
	}
}

func redPNGBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (m *memStorage) SaveProcessed(_ context.Context, filename string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[filename] = data
	return "processed/" + filename, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.RemovalEvent
}

func (r *recordingEvents) PublishRemoval(_ context.Context, e domain.RemovalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) all() []domain.RemovalEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RemovalEvent(nil), r.events...)
}

type memStatusRepo struct {
	mu     sync.Mutex
	checks []*domain.StatusCheck
	err    error
}

func (m *memStatusRepo) Create(_ context.Context, c *domain.StatusCheck) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, c)
	return nil
}

func (m *memStatusRepo) List(_ context.Context, limit int) ([]*domain.StatusCheck, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.checks) < limit {
		limit = len(m.checks)
	}
	return append([]*domain.StatusCheck(nil), m.checks[:limit]...), nil
}

func (m *memStatusRepo) Close() error { return nil }
