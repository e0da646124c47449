package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

func newLocal(t *testing.T) (string, *config.StorageConfig) {
	t.Helper()
	dir := t.TempDir()
	return dir, &config.StorageConfig{Enabled: true, Type: "local", LocalPath: dir}
}

func TestLocalStorage_Save(t *testing.T) {
	dir, cfg := newLocal(t)
	s, err := New(cfg)
	require.NoError(t, err)

	p, err := s.SaveProcessed(context.Background(), "cat_no_bg.png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("processed", "cat_no_bg.png"), p)

	onDisk, err := os.ReadFile(filepath.Join(dir, p))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), onDisk)
}

func TestLocalStorage_FilenameCannotEscape(t *testing.T) {
	dir, cfg := newLocal(t)
	s, err := New(cfg)
	require.NoError(t, err)

	p, err := s.SaveProcessed(context.Background(), "../../evil.png", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("processed", "evil.png"), p)
	assert.FileExists(t, filepath.Join(dir, "processed", "evil.png"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "evil.png"))
}

func TestLocalStorage_Failures(t *testing.T) {
	dir, cfg := newLocal(t)
	s, err := New(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.SaveProcessed(ctx, "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, domain.ErrStorageFailed)

	_, err = s.SaveProcessed(ctx, "nil.png", nil)
	assert.ErrorIs(t, err, domain.ErrStorageFailed)

	// archive directory removed underneath the store
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "processed")))
	_, err = s.SaveProcessed(ctx, "gone.png", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, domain.ErrStorageFailed)
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
