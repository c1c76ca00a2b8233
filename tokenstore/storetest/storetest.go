// Package storetest holds the behaviour every tokenstore.Store backend must
// share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/jrsteele09/promptstudio/tokenstore"
	"github.com/stretchr/testify/require"
)

// Run exercises newStore against the tokenstore.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) tokenstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty get", func(t *testing.T) {
		s := newStore(t)
		v, err := s.Get(ctx, tokenstore.CredentialKeys...)
		require.NoError(t, err)
		require.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.Values{"accessToken": "A", "refreshToken": "R"}))

		v, err := s.Get(ctx, "accessToken", "refreshToken", "user")
		require.NoError(t, err)
		require.Equal(t, tokenstore.Values{"accessToken": "A", "refreshToken": "R"}, v)
	})

	t.Run("set overwrites and merges", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.Values{"accessToken": "A", "user": "u"}))
		require.NoError(t, s.Set(ctx, tokenstore.Values{"accessToken": "A2", "refreshToken": "R2"}))

		v, err := s.Get(ctx, tokenstore.CredentialKeys...)
		require.NoError(t, err)
		require.Equal(t, tokenstore.Values{"accessToken": "A2", "refreshToken": "R2", "user": "u"}, v)
	})

	t.Run("get subset", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.Values{"accessToken": "A", "refreshToken": "R"}))

		v, err := s.Get(ctx, "refreshToken")
		require.NoError(t, err)
		require.Equal(t, tokenstore.Values{"refreshToken": "R"}, v)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, tokenstore.Values{"accessToken": "A", "refreshToken": "R", "user": "u"}))
		require.NoError(t, s.Remove(ctx, "accessToken", "user"))

		v, err := s.Get(ctx, tokenstore.CredentialKeys...)
		require.NoError(t, err)
		require.Equal(t, tokenstore.Values{"refreshToken": "R"}, v)
	})

	t.Run("remove missing is fine", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Remove(ctx, tokenstore.CredentialKeys...))
	})

	t.Run("clear helper", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, tokenstore.SaveCredentials(ctx, s, tokenstore.Credentials{AccessToken: "A", RefreshToken: "R", User: "u"}))
		require.NoError(t, tokenstore.Clear(ctx, s))

		c, err := tokenstore.LoadCredentials(ctx, s)
		require.NoError(t, err)
		require.Equal(t, tokenstore.Credentials{}, c)
	})
}
