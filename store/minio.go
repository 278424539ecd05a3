package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioMediaStore keeps audio blobs in a MinIO (or S3-compatible) bucket. It
// is the persistent alternative to the in-memory MediaStore.
type MinioMediaStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig carries the connection settings for the media bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioMediaStore connects to MinIO and ensures the bucket exists.
func NewMinioMediaStore(cfg MinioConfig) (*MinioMediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioMediaStore{client: client, bucket: cfg.Bucket}, nil
}

// PutAudio uploads audio bytes under the given file identifier.
func (s *MinioMediaStore) PutAudio(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.client.PutObject(ctx, s.bucket, audioObjectName(key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "audio/mpeg",
		})
	if err != nil {
		return fmt.Errorf("failed to upload audio %s: %w", key, err)
	}
	return nil
}

// GetAudio downloads the audio bytes stored under the given identifier.
// A missing object maps to ErrNotFound.
func (s *MinioMediaStore) GetAudio(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	object, err := s.client.GetObject(ctx, s.bucket, audioObjectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get audio %s: %w", key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read audio %s: %w", key, err)
	}
	return data, nil
}

func audioObjectName(key string) string {
	return "audio/" + strings.TrimPrefix(key, "/")
}
