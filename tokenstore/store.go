// Package tokenstore defines the persistent key/value capability that holds
// the client's credentials, and the helpers every writer goes through so the
// access and refresh tokens are always stored and cleared together.
package tokenstore

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
)

// Keys persisted by the client.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// CredentialKeys lists every key the client writes.
var CredentialKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Values maps store keys to their values. A key missing from the map is absent.
type Values map[string]string

// Store is an asynchronous key/value store for credential strings.
//
// Get never reports a missing key as an error; it is simply left out of the
// result. Set is atomic per call: either every value is written or none is.
// No transactionality is provided across calls.
type Store interface {
	Get(ctx context.Context, keys ...string) (Values, error)
	Set(ctx context.Context, values Values) error
	Remove(ctx context.Context, keys ...string) error
}

// Credentials is the typed view of the stored keys. User holds the JSON of a
// cached identity.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         string
}

// HasTokens reports whether an access token is present.
func (c Credentials) HasTokens() bool {
	return c.AccessToken != ""
}

// LoadCredentials reads all credential keys in one call.
func LoadCredentials(ctx context.Context, s Store) (Credentials, error) {
	v, err := s.Get(ctx, CredentialKeys...)
	if err != nil {
		return Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	return Credentials{
		AccessToken:  v[KeyAccessToken],
		RefreshToken: v[KeyRefreshToken],
		User:         v[KeyUser],
	}, nil
}

// SaveTokens writes the token pair in a single Set call.
func SaveTokens(ctx context.Context, s Store, accessToken, refreshToken string) error {
	return SaveCredentials(ctx, s, Credentials{AccessToken: accessToken, RefreshToken: refreshToken})
}

// SaveCredentials writes the token pair, and the cached user when set, in a
// single Set call. Half a pair is rejected with ErrIncompleteTokenPair.
func SaveCredentials(ctx context.Context, s Store, c Credentials) error {
	if c.AccessToken == "" || c.RefreshToken == "" {
		return apperrors.ErrIncompleteTokenPair
	}
	values := Values{
		KeyAccessToken:  c.AccessToken,
		KeyRefreshToken: c.RefreshToken,
	}
	if c.User != "" {
		values[KeyUser] = c.User
	}
	if err := s.Set(ctx, values); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes every credential key.
func Clear(ctx context.Context, s Store) error {
	if err := s.Remove(ctx, CredentialKeys...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Pick copies the requested keys that are present in src.
func Pick(src Values, keys ...string) Values {
	out := make(Values, len(keys))
	for _, k := range keys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}
