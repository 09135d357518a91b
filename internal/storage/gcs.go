package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/types"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSClient wraps the Google Cloud Storage SDK client and bucket name.
type GCSClient struct {
	client        *storage.Client
	bucket        string
	projectID     string
	publicBaseURL string
}

// NewGCSClient constructs a GCS client from config.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig, publicBaseURL string) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(publicBaseURL) == "" {
		publicBaseURL = gcsPublicHost + "/" + cfg.Bucket
	}

	return &GCSClient{
		client:        client,
		bucket:        cfg.Bucket,
		projectID:     cfg.ProjectID,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (g *GCSClient) Name() string {
	return "gcs"
}

// EnsureBucket ensures the configured bucket exists.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Put uploads an object to the configured bucket.
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if strings.TrimSpace(contentType) != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return g.PublicURL(key), nil
}

// Delete removes an object; a missing object is not an error.
func (g *GCSClient) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// SignPut returns a V4 signed PUT URL. The client must send the same
// Content-Type header that was signed.
func (g *GCSClient) SignPut(_ context.Context, key, contentType string, ttl time.Duration) (types.DirectUpload, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "PUT",
		Expires: time.Now().Add(ttl),
	}
	if strings.TrimSpace(contentType) != "" {
		opts.ContentType = contentType
	}
	signed, err := g.client.Bucket(g.bucket).SignedURL(key, opts)
	if err != nil {
		return types.DirectUpload{}, err
	}
	direct := types.DirectUpload{
		Method:    "PUT",
		URL:       signed,
		PublicURL: g.PublicURL(key),
	}
	if opts.ContentType != "" {
		direct.Headers = map[string]string{"Content-Type": opts.ContentType}
	}
	return direct, nil
}

// PublicURL returns the address clients use to fetch key.
func (g *GCSClient) PublicURL(key string) string {
	return joinURL(g.publicBaseURL, key)
}
