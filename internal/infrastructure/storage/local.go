package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

// localStorage хранит обработанные изображения на диске в basePath/processedDir.
type localStorage struct {
	basePath     string
	processedDir string
}

// NewLocalStorage создаёт директорию для обработанных изображений, если её нет.
func NewLocalStorage(cfg *config.StorageConfig) (domain.StorageService, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}
	processedDir := cfg.ProcessedDir
	if processedDir == "" {
		processedDir = "processed"
	}

	s := &localStorage{
		basePath:     cfg.LocalPath,
		processedDir: processedDir,
	}

	if err := os.MkdirAll(filepath.Join(s.basePath, s.processedDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create processed directory: %w", err)
	}

	return s, nil
}

// SaveProcessed сохраняет изображение и возвращает путь относительно basePath.
// Из filename берётся только базовое имя, поэтому файл не выходит за пределы хранилища.
func (s *localStorage) SaveProcessed(ctx context.Context, filename string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", filename).Msg("reader is nil")
		return "", fmt.Errorf("%w: reader is nil", domain.ErrStorageFailed)
	}

	relativePath := filepath.Join(s.processedDir, filepath.Base(filename))
	fullPath := filepath.Join(s.basePath, relativePath)

	file, err := os.Create(fullPath)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return "", fmt.Errorf("%w: create file %s: %v", domain.ErrStorageFailed, fullPath, err)
	}
	defer file.Close()

	// Пустой файл считаем ошибкой: архивировать нечего
	written, err := io.Copy(file, reader)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return "", fmt.Errorf("%w: write file %s: %v", domain.ErrStorageFailed, fullPath, err)
	}
	if written == 0 {
		zlog.Logger.Error().Str("path", fullPath).Msg("no bytes written to file")
		return "", fmt.Errorf("%w: no bytes written to file %s", domain.ErrStorageFailed, fullPath)
	}

	zlog.Logger.Info().
		Str("path", relativePath).
		Int64("bytes", written).
		Msg("processed image archived")

	return relativePath, nil
}
