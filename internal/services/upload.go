package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/metrics"
	"github.com/patitas-adopcion/apiserver/internal/storage"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
	"go.uber.org/zap"
)

// sweepBatch bounds how many orphans one sweep handles.
const sweepBatch = 100

// UploadRepository defines persistence operations for recorded uploads.
type UploadRepository interface {
	Create(ctx context.Context, upload types.Upload) (types.Upload, error)
	UnreferencedByURL(ctx context.Context, url string) (types.Upload, error)
	Orphans(ctx context.Context, cutoff time.Time, limit int) ([]types.Upload, error)
	Delete(ctx context.Context, id int64) error
}

// ImageStore is the subset of *storage.Storage the upload service uses.
type ImageStore interface {
	Backend() string
	Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (storage.Stored, error)
	SignUpload(ctx context.Context, filename, contentType string) (types.DirectUpload, error)
	Delete(ctx context.Context, key string) error
}

// UploadService stores listing images and collects the ones no listing uses.
type UploadService struct {
	repo    UploadRepository
	images  ImageStore
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewUploadService wires the service. logger and m may be nil.
func NewUploadService(repo UploadRepository, images ImageStore, logger *zap.Logger, m *metrics.Metrics) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		repo:    repo,
		images:  images,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Upload stores the image and returns its public URL.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	stored, err := s.images.Upload(ctx, filename, r, size, contentType)
	s.metrics.ObserveUpload(s.images.Backend(), err)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	s.record(ctx, stored.Key, stored.URL)
	return stored.URL, nil
}

// Sign returns instructions for a direct client upload. The object does not
// exist yet; it is recorded so the sweep can collect it if never used.
func (s *UploadService) Sign(ctx context.Context, filename, contentType string) (types.DirectUpload, error) {
	direct, err := s.images.SignUpload(ctx, filename, contentType)
	s.metrics.ObserveUpload(s.images.Backend(), err)
	if err != nil {
		return types.DirectUpload{}, fmt.Errorf("sign upload: %w", err)
	}

	s.record(ctx, direct.ObjectKey, direct.PublicURL)
	return direct, nil
}

func (s *UploadService) record(ctx context.Context, key, url string) {
	_, err := s.repo.Create(ctx, types.Upload{
		ObjectKey: key,
		URL:       url,
		Backend:   s.images.Backend(),
	})
	if err != nil {
		s.logger.Warn("no se pudo registrar la subida",
			zap.String("object_key", key),
			zap.Error(err))
	}
}

// ReleaseImage deletes the upload behind url when no listing references it.
// It reports whether anything was deleted. URLs that were never recorded are
// left alone.
func (s *UploadService) ReleaseImage(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}

	upload, err := s.repo.UnreferencedByURL(ctx, url)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup upload: %w", err)
	}

	reaped, err := s.reap(ctx, upload)
	if err != nil {
		return false, err
	}
	if reaped {
		s.metrics.AddOrphansReaped(1)
	}
	return reaped, nil
}

// SweepOrphans deletes unreferenced uploads older than ttl and returns how
// many were removed. Failures on one upload do not stop the sweep.
func (s *UploadService) SweepOrphans(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl)
	orphans, err := s.repo.Orphans(ctx, cutoff, sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list orphans: %w", err)
	}

	var (
		reaped int
		errs   []error
	)
	for _, upload := range orphans {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := s.reap(ctx, upload)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			reaped++
		}
	}

	s.metrics.AddOrphansReaped(reaped)
	return reaped, errors.Join(errs...)
}

// reap reports false for uploads that live on a backend other than the
// configured one.
func (s *UploadService) reap(ctx context.Context, upload types.Upload) (bool, error) {
	if upload.Backend != s.images.Backend() {
		s.logger.Warn("subida huérfana en otro backend, se omite",
			zap.String("object_key", upload.ObjectKey),
			zap.String("backend", upload.Backend))
		return false, nil
	}

	if err := s.images.Delete(ctx, upload.ObjectKey); err != nil {
		return false, fmt.Errorf("delete object %s: %w", upload.ObjectKey, err)
	}
	if err := s.repo.Delete(ctx, upload.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("delete upload %d: %w", upload.ID, err)
	}

	s.logger.Info("imagen huérfana eliminada",
		zap.String("object_key", upload.ObjectKey),
		zap.String("url", upload.URL))
	return true, nil
}
