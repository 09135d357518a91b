// Package memory holds in-process repositories with the same observable
// behavior as the Postgres ones. They back DB_DRIVER=memory and the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
)

// Store groups one repository per table.
type Store struct {
	Administrators *Administrators
	Shelters       *Shelters
	Listings       *Listings
	Uploads        *Uploads
}

// New returns an empty store.
func New() *Store {
	shelters := NewShelters()
	listings := NewListings(shelters)
	return &Store{
		Administrators: NewAdministrators(),
		Shelters:       shelters,
		Listings:       listings,
		Uploads:        NewUploads(listings),
	}
}

type Administrators struct {
	mu     sync.RWMutex
	nextID int
	byName map[string]types.Administrator
}

func NewAdministrators() *Administrators {
	return &Administrators{nextID: 1, byName: make(map[string]types.Administrator)}
}

func (r *Administrators) GetByUsername(_ context.Context, username string) (types.Administrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.byName[username]
	if !ok {
		return types.Administrator{}, store.ErrNotFound
	}
	return admin, nil
}

func (r *Administrators) Create(_ context.Context, admin types.Administrator) (types.Administrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[admin.Username]; exists {
		return types.Administrator{}, store.ErrConflict
	}
	if admin.Role == "" {
		admin.Role = types.DefaultAdminRole
	}
	admin.ID = r.nextID
	r.nextID++
	admin.CreatedAt = time.Now().UTC()
	r.byName[admin.Username] = admin
	return admin, nil
}

type Shelters struct {
	mu     sync.RWMutex
	byCode map[string]string
}

func NewShelters(seed ...types.Shelter) *Shelters {
	s := &Shelters{byCode: make(map[string]string)}
	for _, shelter := range seed {
		s.byCode[shelter.Code] = shelter.Name
	}
	return s
}

// Put inserts or renames a shelter.
func (r *Shelters) Put(shelter types.Shelter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[shelter.Code] = shelter.Name
}

func (r *Shelters) Codes(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *Shelters) name(code string) *string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byCode[code]
	if !ok {
		return nil
	}
	return &name
}

// Listings stores rows in id order. shelter_code is not checked against
// Shelters; unknown codes list with a nil shelter name.
type Listings struct {
	mu       sync.RWMutex
	nextID   int
	byID     map[int]types.Listing
	shelters *Shelters
}

func NewListings(shelters *Shelters) *Listings {
	if shelters == nil {
		shelters = NewShelters()
	}
	return &Listings{nextID: 1, byID: make(map[int]types.Listing), shelters: shelters}
}

func (r *Listings) List(_ context.Context, shelterCode string) ([]types.Listing, error) {
	r.mu.RLock()
	out := make([]types.Listing, 0, len(r.byID))
	for _, listing := range r.byID {
		if shelterCode == "" || listing.ShelterCode == shelterCode {
			out = append(out, listing)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i := range out {
		out[i].ShelterName = r.shelters.name(out[i].ShelterCode)
	}
	return out, nil
}

func (r *Listings) Recent(_ context.Context, limit int) ([]types.RecentListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]types.RecentListing, 0, len(ids))
	for _, id := range ids {
		listing := r.byID[id]
		out = append(out, types.RecentListing{ID: listing.ID, Name: listing.Name, ImageURL: listing.ImageURL})
	}
	return out, nil
}

func (r *Listings) Get(_ context.Context, id int) (types.Listing, error) {
	r.mu.RLock()
	listing, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return types.Listing{}, store.ErrNotFound
	}
	listing.ShelterName = r.shelters.name(listing.ShelterCode)
	return listing, nil
}

func (r *Listings) Create(_ context.Context, listing types.Listing) (types.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing.ID = r.nextID
	r.nextID++
	listing.ImageURL = nullIfEmpty(listing.ImageURL)
	listing.ShelterName = nil
	r.byID[listing.ID] = listing
	return listing, nil
}

func (r *Listings) Update(_ context.Context, listing types.Listing) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.byID[listing.ID]
	if !ok {
		return "", store.ErrNotFound
	}
	listing.ImageURL = nullIfEmpty(listing.ImageURL)
	listing.ShelterName = nil
	r.byID[listing.ID] = listing
	return previous.ImageURLValue(), nil
}

func (r *Listings) Delete(_ context.Context, id int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.byID[id]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(r.byID, id)
	return previous.ImageURLValue(), nil
}

// ReferencesImage reports whether any listing uses url.
func (r *Listings) ReferencesImage(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, listing := range r.byID {
		if listing.ImageURLValue() == url {
			return true
		}
	}
	return false
}

type Uploads struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]types.Upload
	listings *Listings
	now      func() time.Time
}

func NewUploads(listings *Listings) *Uploads {
	if listings == nil {
		listings = NewListings(nil)
	}
	return &Uploads{nextID: 1, byID: make(map[int64]types.Upload), listings: listings, now: time.Now}
}

func (r *Uploads) Create(_ context.Context, upload types.Upload) (types.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.ObjectKey == upload.ObjectKey {
			return types.Upload{}, store.ErrConflict
		}
	}
	upload.ID = r.nextID
	r.nextID++
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = r.now().UTC()
	}
	r.byID[upload.ID] = upload
	return upload, nil
}

func (r *Uploads) UnreferencedByURL(_ context.Context, url string) (types.Upload, error) {
	r.mu.RLock()
	var (
		found types.Upload
		ok    bool
	)
	for _, upload := range r.byID {
		if upload.URL == url {
			found, ok = upload, true
			break
		}
	}
	r.mu.RUnlock()

	if !ok || r.listings.ReferencesImage(url) {
		return types.Upload{}, store.ErrNotFound
	}
	return found, nil
}

func (r *Uploads) Orphans(_ context.Context, cutoff time.Time, limit int) ([]types.Upload, error) {
	if limit < 1 {
		limit = 100
	}

	r.mu.RLock()
	candidates := make([]types.Upload, 0)
	for _, upload := range r.byID {
		if upload.CreatedAt.Before(cutoff) {
			candidates = append(candidates, upload)
		}
	}
	r.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	out := make([]types.Upload, 0)
	for _, upload := range candidates {
		if len(out) == limit {
			break
		}
		if !r.listings.ReferencesImage(upload.URL) {
			out = append(out, upload)
		}
	}
	return out, nil
}

func (r *Uploads) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// All returns every recorded upload ordered by id.
func (r *Uploads) All() []types.Upload {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Upload, 0, len(r.byID))
	for _, upload := range r.byID {
		out = append(out, upload)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func nullIfEmpty(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
