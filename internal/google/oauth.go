package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// ErrNoToken is returned when no consented token is cached.
var ErrNoToken = errors.New("google: no cached OAuth token")

// Scopes requested at consent time.
var Scopes = []string{
	gmail.GmailSendScope,
	drive.DriveReadonlyScope,
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	// TokenFile defaults to DefaultTokenFile().
	TokenFile string
	// Endpoint defaults to google.Endpoint.
	Endpoint oauth2.Endpoint
}

func (c Credentials) oauthConfig() *oauth2.Config {
	ep := c.Endpoint
	if ep.TokenURL == "" {
		ep = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     ep,
		Scopes:       Scopes,
	}
}

func (c Credentials) tokenFile() string {
	if c.TokenFile != "" {
		return c.TokenFile
	}
	return DefaultTokenFile()
}

// HTTPClient returns a client authorized with the cached token. ctx must
// outlive every request made with the client.
func (c Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	path := c.tokenFile()
	tok, err := LoadToken(path)
	if err != nil {
		return nil, err
	}

	src := &persistingSource{
		base: c.oauthConfig().TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// persistingSource writes refreshed tokens back to the cache file.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("google: refresh token (re-consent may be required): %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// LoadToken reads a JSON encoded oauth2.Token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNoToken, path)
		}
		return nil, fmt.Errorf("google: read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("google: parse token %s: %w", path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("%w at %s", ErrNoToken, path)
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("google: create cache directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("google: encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("google: write token: %w", err)
	}
	return nil
}

// DefaultTokenFile is the token cache location under the user cache dir.
func DefaultTokenFile() string {
	return filepath.Join(userCacheDir(), "note-digest", "google.token")
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if runtime.GOOS == "windows" {
		return os.TempDir()
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
