package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/patitas-adopcion/apiserver/internal/apitest"
	"github.com/patitas-adopcion/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListing() types.Listing {
	return types.Listing{
		Name:          "Luna",
		Species:       types.SpeciesFeline,
		Age:           "2 años",
		Sex:           types.SexFemale,
		Description:   "Tranquila",
		ContactNumber: "555-0101",
		ShelterCode:   "REF01",
	}
}

func TestLogin(t *testing.T) {
	env := apitest.New(t)
	env.AddAdmin(t, "ana", "secreto", "editor")
	c := New(env.URL())
	ctx := context.Background()

	role, err := c.Login(ctx, "ana", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "editor", role)

	_, err = c.Login(ctx, "ana", "otra")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Credenciales inválidas", apiErr.Message)

	_, err = c.Login(ctx, "nadie", "x")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Usuario no encontrado", apiErr.Message)
}

func TestListingLifecycle(t *testing.T) {
	env := apitest.New(t)
	env.AddShelter("REF01", "Refugio Norte")
	c := New(env.URL())
	ctx := context.Background()

	id, err := c.CreateListing(ctx, sampleListing())
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := c.Listing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Luna", got.Name)
	assert.Nil(t, got.ImageURL)
	require.NotNil(t, got.ShelterName)
	assert.Equal(t, "Refugio Norte", *got.ShelterName)

	updated := sampleListing()
	updated.Name = "Luna II"
	require.NoError(t, c.UpdateListing(ctx, id, updated))

	all, err := c.Listings(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Luna II", all[0].Name)

	filtered, err := c.Listings(ctx, "OTRO")
	require.NoError(t, err)
	assert.Empty(t, filtered)

	recent, err := c.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, id, recent[0].ID)

	require.NoError(t, c.DeleteListing(ctx, id))
	_, err = c.Listing(ctx, id)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestCreateListing_ValidationError(t *testing.T) {
	env := apitest.New(t)
	c := New(env.URL())

	bad := sampleListing()
	bad.Name = ""
	_, err := c.CreateListing(context.Background(), bad)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Faltan campos requeridos", apiErr.Message)
}

func TestShelterCodes(t *testing.T) {
	env := apitest.New(t)
	env.AddShelter("B", "Beta")
	env.AddShelter("A", "Alfa")

	codes, err := New(env.URL()).ShelterCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, codes)
}

func TestUploadThroughServer(t *testing.T) {
	env := apitest.New(t)
	c := New(env.URL(), WithUploadMode(UploadServer))

	url, err := c.Upload(context.Background(), "gato.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, apitest.ObjectBaseURL+"listings/")
	assert.Equal(t, 1, env.Objects.Len())
}

func TestUploadDirect_Put(t *testing.T) {
	var stored []byte
	var storedType string
	objects := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		storedType = r.Header.Get("Content-Type")
		stored, _ = io.ReadAll(r.Body)
	}))
	defer objects.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload/sign", r.URL.Path)
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "perro.jpg", req["filename"])
		assert.Equal(t, "image/jpeg", req["content_type"])
		_ = json.NewEncoder(w).Encode(types.DirectUpload{
			Method:    "PUT",
			URL:       objects.URL + "/listings/k.jpg?sig=1",
			PublicURL: "https://cdn.test/listings/k.jpg",
			ObjectKey: "listings/k.jpg",
		})
	}))
	defer api.Close()

	url, err := New(api.URL, WithUploadMode(UploadSigned)).Upload(context.Background(), "perro.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/listings/k.jpg", url)
	assert.Equal(t, []byte("jpeg"), stored)
	assert.Equal(t, "image/jpeg", storedType)
}

func TestUploadDirect_Post(t *testing.T) {
	var fields map[string]string
	var file []byte
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{"signature": r.FormValue("signature"), "public_id": r.FormValue("public_id")}
		if f, _, err := r.FormFile("file"); assert.NoError(t, err) {
			file, _ = io.ReadAll(f)
		}
		_, _ = w.Write([]byte(`{"secure_url":"ignored"}`))
	}))
	defer host.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.DirectUpload{
			Method:    "POST",
			URL:       host.URL,
			Fields:    map[string]string{"signature": "abc", "public_id": "mascotas/k"},
			PublicURL: "https://res.test/mascotas/k",
		})
	}))
	defer api.Close()

	url, err := New(api.URL, WithUploadMode(UploadSigned)).Upload(context.Background(), "k.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.test/mascotas/k", url)
	assert.Equal(t, map[string]string{"signature": "abc", "public_id": "mascotas/k"}, fields)
	assert.Equal(t, []byte("png"), file)
}

func TestUploadWithPreset(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Mascotas", r.FormValue("upload_preset"))
		_, _ = w.Write([]byte(`{"secure_url":"https://res.test/demo/abc.jpg"}`))
	}))
	defer host.Close()

	c := New("http://unused", WithUploadMode(UploadPreset), WithPreset("demo", "Mascotas"), WithPresetEndpoint(host.URL))
	url, err := c.Upload(context.Background(), "abc.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.test/demo/abc.jpg", url)
}

func TestUploadWithPreset_HostError(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer host.Close()

	c := New("http://unused", WithPreset("demo", "nope"), WithPresetEndpoint(host.URL))
	_, err := c.UploadWithPreset(context.Background(), "a.jpg", []byte("x"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Upload preset not found", apiErr.Message)
}

func TestUpload_UnknownMode(t *testing.T) {
	_, err := New("http://unused", WithUploadMode("ftp")).Upload(context.Background(), "a.jpg", nil)
	assert.ErrorContains(t, err, "unsupported upload mode")
}
