package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/listings/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/api/listings/1", "/api/listings/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/listings/{id}", "404"))
	assert.Equal(t, float64(2), got)
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveUpload("minio", nil)
	m.ObserveUpload("minio", errors.New("down"))
	m.ObserveEvent("listing.created", nil)
	m.AddOrphansReaped(3)
	m.AddOrphansReaped(-1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.uploads.WithLabelValues("minio", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.uploads.WithLabelValues("minio", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.eventsPublished.WithLabelValues("listing.created", "ok")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.orphansReaped))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpload("gcs", nil)
		m.ObserveEvent("listing.deleted", nil)
		m.AddOrphansReaped(1)
	})
}

func TestHandler_ExposesSeries(t *testing.T) {
	m := New()
	m.ObserveUpload("cloudinary", nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `patitas_uploads_total{backend="cloudinary",result="ok"} 1`))
}
