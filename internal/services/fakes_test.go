package services

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/patitas-adopcion/apiserver/internal/storage"
	"github.com/patitas-adopcion/apiserver/internal/store/memory"
	"github.com/patitas-adopcion/apiserver/types"
)

var errBoom = errors.New("boom")

type failingListings struct {
	*memory.Listings
	err error
}

func (f failingListings) Create(context.Context, types.Listing) (types.Listing, error) {
	return types.Listing{}, f.err
}

type recordingPublisher struct {
	events []types.ListingEvent
	err    error
}

func (r *recordingPublisher) PublishListingEvent(_ context.Context, event types.ListingEvent) error {
	r.events = append(r.events, event)
	return r.err
}

type memoryImages struct {
	backend   string
	objects   map[string][]byte
	uploadErr error
	deleteErr map[string]error
}

func newMemoryImages() *memoryImages {
	return &memoryImages{backend: "memory", objects: map[string][]byte{}, deleteErr: map[string]error{}}
}

func (m *memoryImages) Backend() string { return m.backend }

func (m *memoryImages) Upload(_ context.Context, filename string, r io.Reader, _ int64, _ string) (storage.Stored, error) {
	if m.uploadErr != nil {
		return storage.Stored{}, m.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return storage.Stored{}, err
	}
	key := "listings/" + filename
	m.objects[key] = buf.Bytes()
	return storage.Stored{Key: key, URL: "https://cdn.example.com/" + key, Backend: m.backend}, nil
}

func (m *memoryImages) SignUpload(_ context.Context, filename, _ string) (types.DirectUpload, error) {
	key := "listings/" + filename
	return types.DirectUpload{
		Method:    "PUT",
		URL:       "https://upload.example.com/" + key,
		PublicURL: "https://cdn.example.com/" + key,
		ObjectKey: key,
	}, nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	if err := m.deleteErr[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	return nil
}
