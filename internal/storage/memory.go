package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patitas-adopcion/apiserver/types"
)

const maxMemoryObjectSize = 10 << 20

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryClient keeps objects in process for DB_DRIVER=memory. It is also an
// http.Handler: GET serves an object and PUT stores one, so mounted under
// its public base URL both public and signed URLs resolve.
type MemoryClient struct {
	mu            sync.RWMutex
	objects       map[string]memoryObject
	publicBaseURL string
}

func NewMemoryClient(publicBaseURL string) *MemoryClient {
	return &MemoryClient{
		objects:       make(map[string]memoryObject),
		publicBaseURL: publicBaseURL,
	}
}

func (m *MemoryClient) Name() string {
	return "memory"
}

func (m *MemoryClient) EnsureBucket(context.Context) error {
	return nil
}

func (m *MemoryClient) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.store(key, buf.Bytes(), contentType)
	return m.PublicURL(key), nil
}

func (m *MemoryClient) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// SignPut returns a plain PUT to the object's own URL; nothing is signed.
func (m *MemoryClient) SignPut(_ context.Context, key, contentType string, _ time.Duration) (types.DirectUpload, error) {
	direct := types.DirectUpload{
		Method:    http.MethodPut,
		URL:       m.PublicURL(key),
		PublicURL: m.PublicURL(key),
	}
	if strings.TrimSpace(contentType) != "" {
		direct.Headers = map[string]string{"Content-Type": contentType}
	}
	return direct, nil
}

// PublicURL returns the address clients use to fetch key.
func (m *MemoryClient) PublicURL(key string) string {
	return joinURL(m.publicBaseURL, key)
}

// Len reports how many objects are stored.
func (m *MemoryClient) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ServeHTTP expects the request path to be the object key.
func (m *MemoryClient) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimLeft(r.URL.Path, "/")
	if key == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		m.mu.RLock()
		obj, ok := m.objects[key]
		m.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		if obj.contentType != "" {
			w.Header().Set("Content-Type", obj.contentType)
		}
		http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(obj.data))
	case http.MethodPut:
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMemoryObjectSize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		m.store(key, data, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Allow", "GET, HEAD, PUT")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (m *MemoryClient) store(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
}
