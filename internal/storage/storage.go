package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/types"
)

const (
	keyPrefix      = "listings"
	defaultSignTTL = 15 * time.Minute
)

// ObjectStorage defines the image store operations shared by every backend.
type ObjectStorage interface {
	// Name identifies the backend in upload records and metrics.
	Name() string
	EnsureBucket(ctx context.Context) error
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// SignPut authorizes a client to upload key directly to the backend.
	SignPut(ctx context.Context, key, contentType string, ttl time.Duration) (types.DirectUpload, error)
}

// Stored describes an object written through Storage.
type Stored struct {
	Key     string
	URL     string
	Backend string
}

// Storage wraps an ObjectStorage backend and owns object key naming.
type Storage struct {
	backend ObjectStorage
	signTTL time.Duration
	newID   func() string
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage, signTTL time.Duration) *Storage {
	if signTTL <= 0 {
		signTTL = defaultSignTTL
	}
	return &Storage{
		backend: backend,
		signTTL: signTTL,
		newID:   uuid.NewString,
	}
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "minio":
		backend, err = NewMinioClient(cfg.Minio, cfg.PublicBaseURL)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS, cfg.PublicBaseURL)
	case "cloudinary":
		backend, err = NewCloudinaryClient(cfg.Cloudinary)
	case "memory":
		backend = NewMemoryClient(cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewStorage(backend, cfg.SignTTL), nil
}

// Backend returns the name of the underlying backend.
func (s *Storage) Backend() string {
	return s.backend.Name()
}

// Files returns the handler serving stored objects when the backend keeps
// them in process.
func (s *Storage) Files() (http.Handler, bool) {
	h, ok := s.backend.(http.Handler)
	return h, ok
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload stores r under a fresh key derived from filename.
func (s *Storage) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Stored, error) {
	key := s.objectKey(filename)
	url, err := s.backend.Put(ctx, key, r, size, contentType)
	if err != nil {
		return Stored{}, err
	}
	if strings.TrimSpace(url) == "" {
		return Stored{}, errors.New("storage backend returned an empty url")
	}
	return Stored{Key: key, URL: url, Backend: s.backend.Name()}, nil
}

// SignUpload reserves a fresh key and returns the instructions a client
// needs to upload it without going through this service.
func (s *Storage) SignUpload(ctx context.Context, filename, contentType string) (types.DirectUpload, error) {
	key := s.objectKey(filename)
	direct, err := s.backend.SignPut(ctx, key, contentType, s.signTTL)
	if err != nil {
		return types.DirectUpload{}, err
	}
	direct.ObjectKey = key
	return direct, nil
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

func (s *Storage) objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return path.Join(keyPrefix, s.newID()+ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
