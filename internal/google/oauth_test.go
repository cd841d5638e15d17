package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLoadTokenMissing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "none.token"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoToken))
}

func TestLoadTokenInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.token")
	require.NoError(t, os.WriteFile(path, []byte("access refresh"), 0600))

	_, err := LoadToken(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse token")
}

func TestSaveTokenPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "google.token")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "r", tok.RefreshToken)
}

func TestHTTPClientRefreshesAndPersists(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "stored-refresh", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer api.Close()

	path := filepath.Join(t.TempDir(), "google.token")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "stored-refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	creds := Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		TokenFile:    path,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
	}
	client, err := creds.HTTPClient(context.Background())
	require.NoError(t, err)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer fresh", gotAuth)

	saved, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "stored-refresh", saved.RefreshToken, "refresh token is kept when the server omits it")
}

func TestHTTPClientWithoutToken(t *testing.T) {
	creds := Credentials{TokenFile: filepath.Join(t.TempDir(), "missing.token")}
	_, err := creds.HTTPClient(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestDefaultTokenFile(t *testing.T) {
	assert.Equal(t, "google.token", filepath.Base(DefaultTokenFile()))
	assert.Equal(t, "note-digest", filepath.Base(filepath.Dir(DefaultTokenFile())))
}
