package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

// s3Storage хранит обработанные изображения в S3-совместимом бакете (minio).
type s3Storage struct {
	client       *minio.Client
	bucket       string
	processedDir string
}

// NewS3Storage подключается к S3 и создаёт бакет, если его нет.
func NewS3Storage(cfg *config.StorageConfig) (domain.StorageService, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	processedDir := cfg.ProcessedDir
	if processedDir == "" {
		processedDir = "processed"
	}

	creds := credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check s3 bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			zlog.Logger.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("unable to create bucket, ensure it exists and credentials are correct")
		} else {
			zlog.Logger.Info().Str("bucket", cfg.S3Bucket).Msg("created s3 bucket")
		}
	}

	return &s3Storage{
		client:       client,
		bucket:       cfg.S3Bucket,
		processedDir: processedDir,
	}, nil
}

// SaveProcessed загружает изображение как объект processedDir/<имя файла>.
func (s *s3Storage) SaveProcessed(ctx context.Context, filename string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", filename).Msg("reader is nil")
		return "", fmt.Errorf("%w: reader is nil", domain.ErrStorageFailed)
	}

	objectName := path.Join(s.processedDir, path.Base(filename))

	info, err := s.client.PutObject(ctx, s.bucket, objectName, reader, -1, minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to put object to s3")
		return "", fmt.Errorf("%w: put object %s: %v", domain.ErrStorageFailed, objectName, err)
	}

	zlog.Logger.Info().Str("path", objectName).Int64("bytes", info.Size).Msg("processed image archived to s3")
	return objectName, nil
}
