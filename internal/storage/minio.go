package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"
)

// MinioStore implements ObjectStore using a MinIO (or any S3-compatible)
// backend. Objects stay private; read access goes through presigned URLs.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a MinIO client, ensures the bucket exists, and
// returns a ready-to-use MinioStore.
func NewMinioStore(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("storage: created bucket %q", bucket)
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// Put stores data under key with server-side encryption and the given
// user metadata, returning the object's ETag.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:          contentType,
		UserMetadata:         metadata,
		ServerSideEncryption: encrypt.NewSSE(),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return info.ETag, nil
}

// PresignedGetURL returns a presigned GET URL for key, valid for ttl.
func (s *MinioStore) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes the object at key from the bucket.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// List returns up to limit keys under prefix.
func (s *MinioStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	// ListObjects streams until its context is cancelled; cancel as soon
	// as we have enough keys.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, 0, limit)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
		if len(keys) >= limit {
			break
		}
	}
	return keys, nil
}
