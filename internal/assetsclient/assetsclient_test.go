package assetsclient

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAssetsReturnsManifestItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bearer token123", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"appName": "Reality",
			"items": {
				"MANIFEST": {"distribution": "https://cdn.example.com", "path": "builds/a.manifest", "hash": "abc123"}
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "token123")
	resp, err := c.FetchAssets(context.Background(), "Windows", "ns", "item", "app", "Live")
	require.NoError(t, err)
	assert.Equal(t, "Reality", resp.AppName)

	item, err := resp.ManifestItem()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/builds/a.manifest", item.URL())
}

func TestManifestItemMissingReturnsError(t *testing.T) {
	resp := &Response{Items: map[string]Item{}}
	_, err := resp.ManifestItem()
	require.Error(t, err)
}

func TestFetchManifestBytesVerifiesHash(t *testing.T) {
	data := []byte("manifest-bytes")
	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	c := New("unused", "token123")
	got, err := c.FetchManifestBytes(context.Background(), Item{Distribution: srv.URL, Path: "x.manifest", Hash: hash})
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFetchManifestBytesRejectsHashMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("manifest-bytes"))
	}))
	defer srv.Close()

	c := New("unused", "token123")
	_, err := c.FetchManifestBytes(context.Background(), Item{Distribution: srv.URL, Path: "x.manifest", Hash: "deadbeef"})
	require.Error(t, err)
}

func TestAuthenticateReturnsAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "basic creds", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Write([]byte(`{"access_token": "new-token"}`))
	}))
	defer srv.Close()

	token, err := Authenticate(context.Background(), srv.URL, "creds")
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
}

func TestAuthenticateFailsOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := Authenticate(context.Background(), srv.URL, "creds")
	require.Error(t, err)
}
