package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"treeline/internal/config"
	"treeline/internal/logging"
)

// ParquetContentType is the MIME type advertised on uploaded channel objects.
// The managed XGBoost container keys its input parser off this value.
const ParquetContentType = "application/x-parquet"

// Service uploads training channel files to object storage.
type Service interface {
	UploadFile(ctx context.Context, localPath, key string) (string, error)
}

// Uploader implements Service on top of the concurrent s3manager uploader.
type Uploader struct {
	bucket   string
	uploader *s3manager.Uploader
	logger   *slog.Logger
}

// New constructs an Uploader using storage configuration for part size and
// concurrency.
func New(cfg *config.Config, p client.ConfigProvider, logger *slog.Logger) *Uploader {
	uploader := s3manager.NewUploader(p, func(u *s3manager.Uploader) {
		u.PartSize = int64(cfg.Storage.UploadPartSizeMiB) * 1024 * 1024
		u.Concurrency = cfg.Storage.UploadConcurrency
	})
	return &Uploader{
		bucket:   cfg.Storage.Bucket,
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "objectstore"),
	}
}

// UploadFile streams a local file to the bucket under key and returns the
// resulting s3:// URI.
func (u *Uploader) UploadFile(ctx context.Context, localPath, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload source: %w", err)
	}

	start := time.Now()
	_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(ParquetContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path.Base(localPath), err)
	}

	uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	u.logger.Info("uploaded channel object",
		logging.String("uri", uri),
		logging.Int64("bytes", info.Size()),
		logging.Duration("upload_duration", time.Since(start)),
	)
	return uri, nil
}
