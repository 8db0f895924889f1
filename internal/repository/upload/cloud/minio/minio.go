package minio

import (
	"context"
	"fmt"

	"upload-converter/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// MirrorRepository copies stored uploads into a bucket. Object keys mirror
// the layout below the uploads directory.
type MirrorRepository struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

func NewMirrorRepository(client *minio.Client, bucket string, retries retry.Strategy, logger *zlog.Zerolog) *MirrorRepository {
	return &MirrorRepository{
		client:  client,
		bucket:  bucket,
		retries: retries,
		logger:  logger,
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (r *MirrorRepository) EnsureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	r.logger.Info().Str("bucket", r.bucket).Msg("MinIO bucket created")
	return nil
}

func (r *MirrorRepository) Put(ctx context.Context, key, path, contentType string) error {
	return r.withRetry(ctx, "put", func() error {
		_, err := r.client.FPutObject(ctx, r.bucket, key, path, minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	})
}

func (r *MirrorRepository) Delete(ctx context.Context, key string) error {
	return r.withRetry(ctx, "delete", func() error {
		return r.client.RemoveObject(ctx, r.bucket, key, minio.RemoveObjectOptions{})
	})
}

func (r *MirrorRepository) withRetry(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	err := retry.DoContext(ctx, r.retries, func() error {
		attempt++
		err := fn()
		if err != nil {
			r.logger.Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("MinIO call failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("minio %s failed after %d attempts: %w", op, attempt, err)
	}
	return nil
}
