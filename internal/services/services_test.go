package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/metrics"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/internal/store/memory"
	"github.com/patitas-adopcion/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func sampleListing() types.Listing {
	return types.Listing{
		Name:          "Firulais",
		Species:       types.SpeciesCanine,
		Age:           "2 años",
		Sex:           types.SexMale,
		Description:   "Muy juguetón",
		ContactNumber: "555-1234",
		ShelterCode:   "REF01",
		ImageURL:      strPtr("https://cdn.example.com/listings/firulais.jpg"),
	}
}

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	svc := NewAuthService(memory.NewAdministrators())
	svc.cost = bcrypt.MinCost
	_, err := svc.Provision(context.Background(), "ana", "s3creta", "")
	require.NoError(t, err)
	return svc
}

func TestAuthService_Login(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	admin, err := svc.Login(ctx, "ana", "s3creta")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultAdminRole, admin.Role)

	_, err = svc.Login(ctx, "ana", "otra")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nadie", "s3creta")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_Provision(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	admin, err := svc.Provision(ctx, "  luis ", "clave", "editor")
	require.NoError(t, err)
	assert.Equal(t, "luis", admin.Username)
	assert.Equal(t, "editor", admin.Role)
	assert.NotEqual(t, "clave", admin.PasswordHash)

	_, err = svc.Provision(ctx, "ana", "x", "")
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = svc.Provision(ctx, "", "x", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestAuthService_CorruptHashIsServerError(t *testing.T) {
	repo := memory.NewAdministrators()
	_, err := repo.Create(context.Background(), types.Administrator{Username: "ana", PasswordHash: "not-a-hash"})
	require.NoError(t, err)
	_, err = NewAuthService(repo).Login(context.Background(), "ana", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestListingService_CreateThenList(t *testing.T) {
	repo := memory.NewListings(nil)
	events := &recordingPublisher{}
	svc := NewListingService(repo, events, nil, nil)
	ctx := context.Background()

	input := sampleListing()
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)

	input.ID = created.ID
	assert.Equal(t, input, all[0])

	require.Len(t, events.events, 1)
	assert.Equal(t, types.ListingCreated, events.events[0].Type)
	assert.Equal(t, created.ID, events.events[0].ListingID)
	assert.False(t, events.events[0].OccurredAt.IsZero())
}

func TestListingService_CreateEmptyImageIsNull(t *testing.T) {
	svc := NewListingService(memory.NewListings(nil), nil, nil, nil)
	input := sampleListing()
	input.ImageURL = strPtr("")

	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL)
}

func TestListingService_CreateValidation(t *testing.T) {
	svc := NewListingService(memory.NewListings(nil), nil, nil, nil)
	ctx := context.Background()

	missing := sampleListing()
	missing.Name = ""
	missing.ShelterCode = "  "
	_, err := svc.Create(ctx, missing)
	require.ErrorIs(t, err, ErrMissingFields)
	assert.True(t, strings.Contains(err.Error(), "name, shelter_code"))

	noDescription := sampleListing()
	noDescription.Description = ""
	noDescription.ImageURL = nil
	_, err = svc.Create(ctx, noDescription)
	assert.NoError(t, err)

	badSpecies := sampleListing()
	badSpecies.Species = "Ave"
	_, err = svc.Create(ctx, badSpecies)
	assert.ErrorIs(t, err, ErrInvalidListing)

	badSex := sampleListing()
	badSex.Sex = "Otro"
	_, err = svc.Create(ctx, badSex)
	assert.ErrorIs(t, err, ErrInvalidListing)
}

func TestListingService_RecentCapsAtTen(t *testing.T) {
	svc := NewListingService(memory.NewListings(nil), nil, nil, nil)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := svc.Create(ctx, sampleListing())
		require.NoError(t, err)
	}

	recent, err := svc.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, RecentLimit)
	for i := 1; i < len(recent); i++ {
		assert.Greater(t, recent[i-1].ID, recent[i].ID)
	}
	assert.Equal(t, 12, recent[0].ID)
}

func TestListingService_UpdateMissingIDSucceeds(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	events := &recordingPublisher{}
	svc := NewListingService(memory.NewListings(nil), events, zap.New(core), nil)

	err := svc.Update(context.Background(), 999, sampleListing())
	require.NoError(t, err)
	assert.Empty(t, events.events)
	assert.Equal(t, 1, logs.Len())
}

func TestListingService_UpdateCarriesPreviousImage(t *testing.T) {
	events := &recordingPublisher{}
	svc := NewListingService(memory.NewListings(nil), events, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, sampleListing())
	require.NoError(t, err)

	changed := sampleListing()
	changed.Name = "Firulais II"
	changed.ImageURL = strPtr("https://cdn.example.com/listings/new.jpg")
	require.NoError(t, svc.Update(ctx, created.ID, changed))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Firulais II", got.Name)

	last := events.events[len(events.events)-1]
	assert.Equal(t, types.ListingUpdated, last.Type)
	assert.Equal(t, "https://cdn.example.com/listings/firulais.jpg", last.PreviousImageURL)
	assert.Equal(t, "https://cdn.example.com/listings/firulais.jpg", last.ReleasedImage())
}

func TestListingService_UpdateValidates(t *testing.T) {
	svc := NewListingService(memory.NewListings(nil), nil, nil, nil)
	bad := sampleListing()
	bad.Age = ""
	assert.ErrorIs(t, svc.Update(context.Background(), 1, bad), ErrMissingFields)
}

func TestListingService_DeleteThenGetIsNotFound(t *testing.T) {
	events := &recordingPublisher{}
	svc := NewListingService(memory.NewListings(nil), events, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, sampleListing())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.Len(t, events.events, 2)
	assert.Equal(t, types.ListingDeleted, events.events[1].Type)
}

func TestListingService_PublishFailureIsNotFatal(t *testing.T) {
	m := metrics.New()
	events := &recordingPublisher{err: errBoom}
	svc := NewListingService(memory.NewListings(nil), events, nil, m)

	_, err := svc.Create(context.Background(), sampleListing())
	assert.NoError(t, err)
	assert.Len(t, events.events, 1)
}

func TestListingService_RepositoryError(t *testing.T) {
	repo := failingListings{Listings: memory.NewListings(nil), err: errBoom}
	svc := NewListingService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), sampleListing())
	assert.ErrorIs(t, err, errBoom)
}

type fixedCodes []string

func (f fixedCodes) Codes(context.Context) ([]string, error) { return f, nil }

func TestShelterService_CodesNeverNil(t *testing.T) {
	codes, err := NewShelterService(fixedCodes(nil)).Codes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, codes)
	assert.Empty(t, codes)

	codes, err = NewShelterService(fixedCodes{"A1", "B2"}).Codes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, codes)
}

func TestUploadService_UploadRecords(t *testing.T) {
	uploads := memory.NewUploads(nil)
	images := newMemoryImages()
	svc := NewUploadService(uploads, images, nil, metrics.New())

	url, err := svc.Upload(context.Background(), "a.jpg", strings.NewReader("img"), 3, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/listings/a.jpg", url)
	recorded := uploads.All()
	require.Len(t, recorded, 1)
	assert.Equal(t, "listings/a.jpg", recorded[0].ObjectKey)
	assert.Equal(t, "memory", recorded[0].Backend)

	images.uploadErr = errBoom
	_, err = svc.Upload(context.Background(), "b.jpg", strings.NewReader("img"), 3, "image/jpeg")
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, uploads.All(), 1)
}

func TestUploadService_Sign(t *testing.T) {
	uploads := memory.NewUploads(nil)
	svc := NewUploadService(uploads, newMemoryImages(), nil, nil)

	direct, err := svc.Sign(context.Background(), "c.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "listings/c.png", direct.ObjectKey)
	recorded := uploads.All()
	require.Len(t, recorded, 1)
	assert.Equal(t, direct.PublicURL, recorded[0].URL)
}

func TestUploadService_ReleaseImage(t *testing.T) {
	listings := memory.NewListings(nil)
	uploads := memory.NewUploads(listings)
	images := newMemoryImages()
	svc := NewUploadService(uploads, images, nil, nil)
	ctx := context.Background()

	url, err := svc.Upload(ctx, "a.jpg", strings.NewReader("img"), 3, "image/jpeg")
	require.NoError(t, err)

	listing := sampleListing()
	listing.ImageURL = strPtr(url)
	_, err = listings.Create(ctx, listing)
	require.NoError(t, err)

	released, err := svc.ReleaseImage(ctx, url)
	require.NoError(t, err)
	assert.False(t, released, "referenced images stay")

	_, err = listings.Delete(ctx, 1)
	require.NoError(t, err)

	released, err = svc.ReleaseImage(ctx, url)
	require.NoError(t, err)
	assert.True(t, released)
	assert.Empty(t, images.objects)
	assert.Empty(t, uploads.All())

	released, err = svc.ReleaseImage(ctx, "https://res.cloudinary.com/demo/preset.jpg")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestUploadService_SweepOrphans(t *testing.T) {
	listings := memory.NewListings(nil)
	uploads := memory.NewUploads(listings)
	images := newMemoryImages()
	svc := NewUploadService(uploads, images, nil, nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	old := now.Add(-48 * time.Hour)
	_, _ = uploads.Create(ctx, types.Upload{ObjectKey: "listings/old.jpg", URL: "u-old", Backend: "memory", CreatedAt: old})
	_, _ = uploads.Create(ctx, types.Upload{ObjectKey: "listings/used.jpg", URL: "u-used", Backend: "memory", CreatedAt: old})
	_, _ = uploads.Create(ctx, types.Upload{ObjectKey: "listings/fresh.jpg", URL: "u-fresh", Backend: "memory", CreatedAt: now})
	_, _ = uploads.Create(ctx, types.Upload{ObjectKey: "listings/gcs.jpg", URL: "u-gcs", Backend: "gcs", CreatedAt: old})
	_, _ = uploads.Create(ctx, types.Upload{ObjectKey: "listings/stuck.jpg", URL: "u-stuck", Backend: "memory", CreatedAt: old})
	images.deleteErr["listings/stuck.jpg"] = errBoom

	used := sampleListing()
	used.ImageURL = strPtr("u-used")
	_, err := listings.Create(ctx, used)
	require.NoError(t, err)

	reaped, err := svc.SweepOrphans(ctx, 24*time.Hour)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, reaped)

	var remaining []string
	for _, u := range uploads.All() {
		remaining = append(remaining, u.URL)
	}
	assert.ElementsMatch(t, []string{"u-used", "u-fresh", "u-gcs", "u-stuck"}, remaining)
}
