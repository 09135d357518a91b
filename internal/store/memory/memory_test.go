package memory

import (
	"context"
	"testing"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestListings_LeftJoinsShelterName(t *testing.T) {
	s := New()
	s.Shelters.Put(types.Shelter{Code: "REF01", Name: "Huellitas"})
	ctx := context.Background()

	_, err := s.Listings.Create(ctx, types.Listing{Name: "Luna", ShelterCode: "REF01"})
	require.NoError(t, err)
	_, err = s.Listings.Create(ctx, types.Listing{Name: "Sol", ShelterCode: "GONE"})
	require.NoError(t, err)

	all, err := s.Listings.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].ShelterName)
	assert.Equal(t, "Huellitas", *all[0].ShelterName)
	assert.Nil(t, all[1].ShelterName)

	filtered, err := s.Listings.List(ctx, "GONE")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Sol", filtered[0].Name)
}

func TestListings_UpdateDeleteReturnPreviousImage(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Listings.Create(ctx, types.Listing{Name: "Luna", ImageURL: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, created.ImageURL)

	prev, err := s.Listings.Update(ctx, types.Listing{ID: created.ID, Name: "Luna", ImageURL: strPtr("a.jpg")})
	require.NoError(t, err)
	assert.Equal(t, "", prev)

	prev, err = s.Listings.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", prev)

	_, err = s.Listings.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Listings.Update(ctx, types.Listing{ID: created.ID})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestShelters_CodesSorted(t *testing.T) {
	s := NewShelters(types.Shelter{Code: "C"}, types.Shelter{Code: "A"}, types.Shelter{Code: "B"})
	codes, err := s.Codes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, codes)
}

func TestAdministrators_Conflict(t *testing.T) {
	s := NewAdministrators()
	ctx := context.Background()

	admin, err := s.Create(ctx, types.Administrator{Username: "ana", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultAdminRole, admin.Role)

	_, err = s.Create(ctx, types.Administrator{Username: "ana"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestUploads_Orphans(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_, err := s.Uploads.Create(ctx, types.Upload{ObjectKey: "k1", URL: "u1", CreatedAt: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = s.Uploads.Create(ctx, types.Upload{ObjectKey: "k2", URL: "u2", CreatedAt: now.Add(-3 * time.Hour)})
	require.NoError(t, err)
	_, err = s.Uploads.Create(ctx, types.Upload{ObjectKey: "k3", URL: "u3"})
	require.NoError(t, err)
	_, err = s.Uploads.Create(ctx, types.Upload{ObjectKey: "k1"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Listings.Create(ctx, types.Listing{Name: "Luna", ImageURL: strPtr("u1")})
	require.NoError(t, err)

	orphans, err := s.Uploads.Orphans(ctx, now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "u2", orphans[0].URL)

	_, err = s.Uploads.UnreferencedByURL(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	upload, err := s.Uploads.UnreferencedByURL(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, "k3", upload.ObjectKey)

	require.NoError(t, s.Uploads.Delete(ctx, upload.ID))
	assert.Len(t, s.Uploads.All(), 2)
}
