package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/skynet-legal/legaleagle-api/pkg/config"
)

// DocumentStore persists uploaded source documents in object storage.
type DocumentStore struct {
	client *minio.Client
	bucket string
	cfg    config.DocumentsConfig
}

// NewDocumentStore connects to the configured MinIO endpoint.
func NewDocumentStore(cfg config.DocumentsConfig) (*DocumentStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &DocumentStore{client: client, bucket: cfg.Bucket, cfg: cfg}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *DocumentStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Put uploads a document under the given object key.
func (s *DocumentStore) Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	return nil
}

// PresignedURL returns a time-limited download URL for the object.
func (s *DocumentStore) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.cfg.URLExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign document url: %w", err)
	}
	return url.String(), nil
}

// Delete removes the object; missing objects are not an error.
func (s *DocumentStore) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
