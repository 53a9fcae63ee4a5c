// Package auth defines the credential boundary consumed by the health
// checker and the upstream client.
//
// The token lifecycle itself (acquisition, refresh, storage) lives outside
// this process. Spyglass only needs one operation: "give me a currently
// usable access token". The TokenSource interface captures exactly that,
// and the implementations here never mutate whatever backs them.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Token is an access token together with the metadata the health checker
// inspects: expiry and granted scopes.
type Token struct {
	// AccessToken is the bearer token value.
	AccessToken string `json:"access_token"`

	// Expiry is when the token stops being usable. Zero means unknown.
	Expiry time.Time `json:"expiry"`

	// Scopes are the OAuth scopes granted to this token.
	Scopes []string `json:"scopes"`
}

// Valid reports whether the token is non-empty and not expired.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return time.Now().Before(t.Expiry)
}

// ExpiresIn returns the number of whole seconds until expiry, or -1 when
// the expiry is unknown.
func (t *Token) ExpiresIn() int64 {
	if t.Expiry.IsZero() {
		return -1
	}
	d := time.Until(t.Expiry)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

// TokenSource yields a currently usable access token, refreshing behind the
// scenes if its implementation supports that. A failure here is the sole
// input to the auth health check.
type TokenSource interface {
	Token(ctx context.Context) (*Token, error)
}

// ErrNoToken is returned by sources that have nothing to hand out.
var ErrNoToken = errors.New("auth: no token available")

// StaticTokenSource returns the same token on every call. Tests and local
// setups use it; it fails once the token expires.
type StaticTokenSource struct {
	tok *Token
}

// NewStaticTokenSource creates a source that always yields tok.
func NewStaticTokenSource(tok *Token) *StaticTokenSource {
	return &StaticTokenSource{tok: tok}
}

// Token implements TokenSource.
func (s *StaticTokenSource) Token(ctx context.Context) (*Token, error) {
	if s.tok == nil || s.tok.AccessToken == "" {
		return nil, ErrNoToken
	}
	if !s.tok.Valid() {
		return nil, fmt.Errorf("auth: token expired at %s", s.tok.Expiry.Format(time.RFC3339))
	}
	return s.tok, nil
}

// FileTokenSource reads a JSON credential file maintained by an external
// refresher. The file is re-read when the cached copy expires, never
// written.
type FileTokenSource struct {
	path string

	mu     sync.Mutex
	cached *Token
}

// NewFileTokenSource creates a source backed by the credential file at path.
func NewFileTokenSource(path string) *FileTokenSource {
	return &FileTokenSource{path: path}
}

// Token implements TokenSource. It serves the cached token while it remains
// valid and re-reads the file otherwise.
func (s *FileTokenSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached.Valid() {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("auth: read credential file %q: %w", s.path, err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("auth: parse credential file %q: %w", s.path, err)
	}

	if !tok.Valid() {
		return nil, fmt.Errorf("auth: credential file %q holds an expired token", s.path)
	}

	s.cached = &tok
	return s.cached, nil
}
