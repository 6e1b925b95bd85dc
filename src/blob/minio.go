package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" validate:"required"`
	AccessKey string `json:"access_key" yaml:"access_key" validate:"required"`
	SecretKey string `json:"secret_key" yaml:"secret_key" validate:"required"`
	Bucket    string `json:"bucket" yaml:"bucket" validate:"required"`
	Secure    bool   `json:"secure" yaml:"secure"`
}

// MinioStore keeps blobs as objects in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioStore connects to the endpoint and creates the bucket if it is absent.
func NewMinioStore(ctx context.Context, cfg MinioConfig, logger *slog.Logger) (*MinioStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "blob", "driver", "minio", "bucket", cfg.Bucket),
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if found {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("bucket created")
	return nil
}

func (s *MinioStore) Put(ctx context.Context, r io.Reader, size int64) (string, error) {
	contentType, body, err := sniff(r)
	if err != nil {
		return "", fmt.Errorf("failed to read blob: %w", err)
	}

	id := newStorageID()
	info, err := s.client.PutObject(ctx, s.bucket, id, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Debug("blob stored", "storage_id", id, "size", info.Size, "content_type", contentType)
	return id, nil
}

func (s *MinioStore) Get(ctx context.Context, storageID string) (io.ReadCloser, *Info, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, storageID, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, mapMinioError(err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, mapMinioError(err)
	}
	return obj, &Info{StorageID: storageID, ContentType: stat.ContentType, Size: stat.Size}, nil
}

func (s *MinioStore) Delete(ctx context.Context, storageID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, storageID, minio.RemoveObjectOptions{})
	if err != nil && mapMinioError(err) != ErrNotFound {
		return fmt.Errorf("failed to delete blob %s: %w", storageID, err)
	}
	s.logger.Debug("blob deleted", "storage_id", storageID)
	return nil
}

// HealthCheck verifies the connection and credentials by listing buckets.
func (s *MinioStore) HealthCheck(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	return err
}

func mapMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	}
	return err
}
