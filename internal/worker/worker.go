// Package worker collects listing images that no listing references.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/internal/mq"
	"github.com/patitas-adopcion/apiserver/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSweepInterval = time.Hour
	defaultOrphanTTL     = 24 * time.Hour
	defaultAttempts      = 3
	defaultRetryDelay    = 2 * time.Second
)

// EventSource delivers listing events until ctx ends.
type EventSource interface {
	SubscribeListingEvents(ctx context.Context, handler func(context.Context, types.ListingEvent) error) error
}

// Reaper deletes unreferenced uploads. *services.UploadService satisfies it.
type Reaper interface {
	ReleaseImage(ctx context.Context, url string) (bool, error)
	SweepOrphans(ctx context.Context, ttl time.Duration) (int, error)
}

type Worker struct {
	events   EventSource
	reaper   Reaper
	interval time.Duration
	ttl      time.Duration
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

// New builds a worker. A nil events source disables the subscriber and
// leaves only the periodic sweep.
func New(events EventSource, reaper Reaper, cfg config.WorkerConfig, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ttl := cfg.OrphanTTL
	if ttl <= 0 {
		ttl = defaultOrphanTTL
	}
	attempts := cfg.ReleaseAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Worker{
		events:   events,
		reaper:   reaper,
		interval: interval,
		ttl:      ttl,
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled or a component fails.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.events != nil {
		g.Go(func() error {
			err := w.events.SubscribeListingEvents(ctx, w.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		w.sweepLoop(ctx)
		return nil
	})

	return g.Wait()
}

// HandleEvent releases the image an update or delete stopped using.
// Failures are retried with a linear backoff; once the attempts run out the
// message is discarded and the periodic sweep collects the upload instead.
// Only cancellation asks the broker to redeliver.
func (w *Worker) HandleEvent(ctx context.Context, event types.ListingEvent) error {
	released := event.ReleasedImage()
	if released == "" {
		return nil
	}

	var (
		deleted bool
		err     error
	)
	for attempt := 1; ; attempt++ {
		deleted, err = w.reaper.ReleaseImage(ctx, released)
		if err == nil {
			break
		}
		w.logger.Warn("no se pudo liberar la imagen",
			zap.Int("listing_id", event.ListingID),
			zap.String("url", released),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt >= w.attempts {
			return fmt.Errorf("%w: release %s: %v", mq.ErrDiscard, released, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * w.delay):
		}
	}

	if deleted {
		w.logger.Info("imagen liberada",
			zap.String("type", string(event.Type)),
			zap.Int("listing_id", event.ListingID),
			zap.String("url", released))
	}
	return nil
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	reaped, err := w.reaper.SweepOrphans(ctx, w.ttl)
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("barrido de imágenes huérfanas incompleto", zap.Int("reaped", reaped), zap.Error(err))
		return
	}
	if reaped > 0 {
		w.logger.Info("barrido de imágenes huérfanas", zap.Int("reaped", reaped))
	}
}
