// Package apitest runs the full HTTP API over in-memory backends for tests.
package apitest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/server"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"github.com/patitas-adopcion/apiserver/internal/storage"
	"github.com/patitas-adopcion/apiserver/internal/store/memory"
	"github.com/patitas-adopcion/apiserver/types"
)

// ObjectBaseURL prefixes every URL Objects hands out.
const ObjectBaseURL = "https://cdn.test/"

// Objects is an in-memory storage.ObjectStorage.
type Objects struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutErr, when set, fails every Put.
	PutErr error
}

func NewObjects() *Objects {
	return &Objects{objects: make(map[string][]byte)}
}

func (o *Objects) Name() string { return "memory" }

func (o *Objects) EnsureBucket(context.Context) error { return nil }

func (o *Objects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.PutErr != nil {
		return "", o.PutErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	o.objects[key] = buf.Bytes()
	return ObjectBaseURL + key, nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *Objects) SignPut(_ context.Context, key, contentType string, _ time.Duration) (types.DirectUpload, error) {
	if contentType == "" {
		return types.DirectUpload{}, errors.New("content type required")
	}
	return types.DirectUpload{
		Method:    "PUT",
		URL:       "https://upload.test/" + key + "?sig=ok",
		Headers:   map[string]string{"Content-Type": contentType},
		PublicURL: ObjectBaseURL + key,
	}, nil
}

// Get returns the bytes stored under key.
func (o *Objects) Get(key string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	return data, ok
}

// Len reports how many objects are stored.
func (o *Objects) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// Events records published listing events.
type Events struct {
	mu     sync.Mutex
	events []types.ListingEvent
}

func (e *Events) PublishListingEvent(_ context.Context, event types.ListingEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

// All returns a copy of the recorded events.
func (e *Events) All() []types.ListingEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.ListingEvent(nil), e.events...)
}

// Env is a running API with handles on its backends.
type Env struct {
	Server  *httptest.Server
	Store   *memory.Store
	Objects *Objects
	Events  *Events
	Storage *storage.Storage
}

// New starts the API. The server is closed when the test ends.
func New(t testing.TB) *Env {
	t.Helper()

	env := &Env{
		Store:   memory.New(),
		Objects: NewObjects(),
		Events:  &Events{},
	}
	env.Storage = storage.NewStorage(env.Objects, time.Minute)

	router := server.NewRouter(server.Deps{
		Administrators: env.Store.Administrators,
		Shelters:       env.Store.Shelters,
		Listings:       env.Store.Listings,
		Uploads:        env.Store.Uploads,
		Images:         env.Storage,
		Events:         env.Events,
	}, nil, nil)

	env.Server = httptest.NewServer(router)
	t.Cleanup(env.Server.Close)
	return env
}

// URL is the API base URL, without the /api prefix.
func (e *Env) URL() string {
	return e.Server.URL
}

// AddAdmin provisions an administrator.
func (e *Env) AddAdmin(t testing.TB, username, password, role string) {
	t.Helper()
	if _, err := services.NewAuthService(e.Store.Administrators).Provision(context.Background(), username, password, role); err != nil {
		t.Fatalf("provision admin: %v", err)
	}
}

// AddShelter inserts a shelter row.
func (e *Env) AddShelter(code, name string) {
	e.Store.Shelters.Put(types.Shelter{Code: code, Name: name})
}
