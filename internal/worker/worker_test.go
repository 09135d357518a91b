package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/patitas-adopcion/apiserver/config"
	"github.com/patitas-adopcion/apiserver/internal/apitest"
	"github.com/patitas-adopcion/apiserver/internal/mq"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"github.com/patitas-adopcion/apiserver/internal/storage"
	"github.com/patitas-adopcion/apiserver/internal/store/memory"
	"github.com/patitas-adopcion/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// Started from init by the GCS and Pub/Sub client libraries.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// channelSource delivers events from a channel and records handler results.
type channelSource struct {
	events  chan types.ListingEvent
	mu      sync.Mutex
	results []error
}

func (c *channelSource) SubscribeListingEvents(ctx context.Context, handler func(context.Context, types.ListingEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-c.events:
			err := handler(ctx, event)
			c.mu.Lock()
			c.results = append(c.results, err)
			c.mu.Unlock()
		}
	}
}

func (c *channelSource) resultCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

type countingReaper struct {
	mu       sync.Mutex
	sweeps   int
	released []string
	err      error
	// failures is how many releases fail with err; -1 fails every one.
	failures int
}

func (r *countingReaper) ReleaseImage(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, url)
	if r.failures != 0 {
		if r.failures > 0 {
			r.failures--
		}
		return false, r.err
	}
	return true, nil
}

func (r *countingReaper) releaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.released)
}

func (r *countingReaper) SweepOrphans(context.Context, time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweeps++
	return 0, nil
}

func (r *countingReaper) sweepCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweeps
}

func fastRetry() config.WorkerConfig {
	return config.WorkerConfig{ReleaseAttempts: 3, RetryDelay: time.Millisecond}
}

func TestHandleEvent_OnlyReleasedImages(t *testing.T) {
	reaper := &countingReaper{}
	w := New(nil, reaper, fastRetry(), nil)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, types.ListingEvent{Type: types.ListingCreated, ImageURL: "a"}))
	require.NoError(t, w.HandleEvent(ctx, types.ListingEvent{Type: types.ListingUpdated, ImageURL: "a", PreviousImageURL: "a"}))
	require.NoError(t, w.HandleEvent(ctx, types.ListingEvent{Type: types.ListingUpdated, ImageURL: "b", PreviousImageURL: "a"}))
	require.NoError(t, w.HandleEvent(ctx, types.ListingEvent{Type: types.ListingDeleted, PreviousImageURL: "b"}))

	assert.Equal(t, []string{"a", "b"}, reaper.released)

}

func TestHandleEvent_RetriesThenSucceeds(t *testing.T) {
	reaper := &countingReaper{err: errors.New("bucket offline"), failures: 2}
	w := New(nil, reaper, fastRetry(), nil)

	err := w.HandleEvent(context.Background(), types.ListingEvent{Type: types.ListingDeleted, PreviousImageURL: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "c", "c"}, reaper.released)
}

func TestHandleEvent_DiscardsAfterAttempts(t *testing.T) {
	reaper := &countingReaper{err: errors.New("bucket offline"), failures: -1}
	w := New(nil, reaper, fastRetry(), nil)

	err := w.HandleEvent(context.Background(), types.ListingEvent{Type: types.ListingDeleted, PreviousImageURL: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, mq.ErrDiscard)
	assert.Contains(t, err.Error(), "bucket offline")
	assert.Equal(t, 3, reaper.releaseCount())
}

func TestHandleEvent_CancelledWhileWaitingIsRedelivered(t *testing.T) {
	reaper := &countingReaper{err: errors.New("bucket offline"), failures: -1}
	w := New(nil, reaper, config.WorkerConfig{ReleaseAttempts: 5, RetryDelay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.HandleEvent(ctx, types.ListingEvent{Type: types.ListingDeleted, PreviousImageURL: "c"})
	}()
	require.Eventually(t, func() bool { return reaper.releaseCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, mq.ErrDiscard)
	case <-time.After(time.Second):
		t.Fatal("handler did not stop")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	source := &channelSource{events: make(chan types.ListingEvent)}
	reaper := &countingReaper{}
	w := New(source, reaper, config.WorkerConfig{SweepInterval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	source.events <- types.ListingEvent{Type: types.ListingDeleted, PreviousImageURL: "x"}
	require.Eventually(t, func() bool { return source.resultCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return reaper.sweepCount() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRun_CollectsReleasedUpload(t *testing.T) {
	store := memory.New()
	objects := apitest.NewObjects()
	images := storage.NewStorage(objects, time.Minute)
	uploads := services.NewUploadService(store.Uploads, images, nil, nil)
	listings := services.NewListingService(store.Listings, nil, nil, nil)
	ctx := context.Background()

	url, err := uploads.Upload(ctx, "perro.jpg", strings.NewReader("img"), 3, "image/jpeg")
	require.NoError(t, err)

	created, err := listings.Create(ctx, types.Listing{
		Name: "Toby", Species: types.SpeciesCanine, Age: "3 años", Sex: types.SexMale,
		ContactNumber: "1", ShelterCode: "R", ImageURL: &url,
	})
	require.NoError(t, err)
	require.NoError(t, listings.Delete(ctx, created.ID))

	source := &channelSource{events: make(chan types.ListingEvent)}
	w := New(source, uploads, config.WorkerConfig{SweepInterval: time.Hour}, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(runCtx) }()

	source.events <- types.ListingEvent{Type: types.ListingDeleted, ListingID: created.ID, PreviousImageURL: url}
	require.Eventually(t, func() bool { return source.resultCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, objects.Len())
	assert.Empty(t, store.Uploads.All())
}
