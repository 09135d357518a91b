package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/types"
)

const defaultMinioRegion = "us-east-1"

// MinioClient wraps the MinIO SDK client and bucket name.
type MinioClient struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewMinioClient constructs a MinIO client from config. Objects are served
// from publicBaseURL when set, otherwise from the endpoint's bucket path.
func NewMinioClient(cfg config.MinioConfig, publicBaseURL string) (*MinioClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	// A fixed region keeps presigning offline.
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: defaultMinioRegion,
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(publicBaseURL) == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBaseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioClient{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (m *MinioClient) Name() string {
	return "minio"
}

// EnsureBucket ensures the configured bucket exists.
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: defaultMinioRegion})
}

// Put uploads an object to the configured bucket.
func (m *MinioClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return m.PublicURL(key), nil
}

// Delete removes an object from the configured bucket.
func (m *MinioClient) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// SignPut returns a presigned PUT URL for key.
func (m *MinioClient) SignPut(ctx context.Context, key, contentType string, ttl time.Duration) (types.DirectUpload, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, ttl)
	if err != nil {
		return types.DirectUpload{}, err
	}
	direct := types.DirectUpload{
		Method:    "PUT",
		URL:       u.String(),
		PublicURL: m.PublicURL(key),
	}
	if strings.TrimSpace(contentType) != "" {
		direct.Headers = map[string]string{"Content-Type": contentType}
	}
	return direct, nil
}

// PublicURL returns the address clients use to fetch key.
func (m *MinioClient) PublicURL(key string) string {
	return joinURL(m.publicBaseURL, key)
}
