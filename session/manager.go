// Package session holds the in-memory authentication state of the client and
// keeps it consistent with the token store.
//
// The state moves from Uninitialized to Authenticated or Unauthenticated on the
// first LoadAuth and afterwards only through Login and Logout. Field access is
// serialized, but no lock is held across I/O: two operations racing each other
// end with whichever wrote last.
package session

import (
	"context"
	"sync"

	"github.com/jrsteele09/promptstudio/apiclient"
	"github.com/jrsteele09/promptstudio/identity"
	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
	"github.com/jrsteele09/promptstudio/tokenstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AuthAPI is the part of the backend the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, in apiclient.LoginRequest) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, in apiclient.RegisterRequest) (*apiclient.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

var _ AuthAPI = (*apiclient.Client)(nil)

// Status is the coarse session state.
type Status int

const (
	StatusUninitialized Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

// State is a snapshot of the session. User is a display identity only; see
// package identity.
type State struct {
	AccessToken     string
	RefreshToken    string
	User            *identity.Identity
	IsAuthenticated bool
	IsLoading       bool
}

// Manager owns the session state. Create one per process with NewManager.
type Manager struct {
	api    AuthAPI
	store  tokenstore.Store
	logger zerolog.Logger

	mu     sync.RWMutex
	state  State
	loaded bool
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager returns a manager in the Uninitialized state with IsLoading set.
func NewManager(api AuthAPI, store tokenstore.Store, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] auth API is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] token store is required")
	}

	m := &Manager{
		api:    api,
		store:  store,
		logger: log.Logger,
		state:  State{IsLoading: true},
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Status derives the coarse state from the current snapshot.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.state.IsAuthenticated:
		return StatusAuthenticated
	case !m.loaded:
		return StatusUninitialized
	default:
		return StatusUnauthenticated
	}
}

// User returns the display identity or ErrUserNotLoaded when there is none.
func (m *Manager) User() (*identity.Identity, error) {
	s := m.State()
	if !s.User.Valid() {
		return nil, apperrors.ErrUserNotLoaded
	}
	return s.User, nil
}

// LoadAuth populates the state from the token store. It never fails: a store
// or decode error is logged and leaves the session unauthenticated or without
// an identity.
func (m *Manager) LoadAuth(ctx context.Context) {
	m.mu.Lock()
	if !m.loaded {
		m.state.IsLoading = true
	}
	m.mu.Unlock()

	creds, err := tokenstore.LoadCredentials(ctx, m.store)
	if err != nil {
		m.logger.Err(err).Msg("[Manager.LoadAuth] failed to load auth")
		m.setState(State{})
		return
	}

	var user *identity.Identity
	if creds.HasTokens() {
		user = m.resolveIdentity(creds.AccessToken, creds.User)
	}

	m.setState(State{
		AccessToken:     creds.AccessToken,
		RefreshToken:    creds.RefreshToken,
		User:            user,
		IsAuthenticated: creds.HasTokens(),
	})
}

// Login signs in against the backend, persists the returned pair and the
// derived identity, and marks the session authenticated. Backend errors are
// returned unmodified.
func (m *Manager) Login(ctx context.Context, in apiclient.LoginRequest) (*apiclient.AuthResponse, error) {
	resp, err := m.api.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	if !resp.HasTokenPair() {
		return nil, errors.Wrap(apperrors.ErrIncompleteTokenPair, "[Manager.Login] login response")
	}

	user := resp.User.Identity()
	if !user.Valid() {
		user = m.identityFromToken(resp.AccessToken)
	}

	m.persist(ctx, resp.AccessToken, resp.RefreshToken, user)

	m.mu.Lock()
	m.state = State{
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		User:            user,
		IsAuthenticated: true,
		IsLoading:       m.state.IsLoading,
	}
	m.mu.Unlock()
	return resp, nil
}

// Register creates an account. It does not sign in: no tokens are stored and
// the state is left untouched, so the new account has to Login explicitly.
func (m *Manager) Register(ctx context.Context, in apiclient.RegisterRequest) (*apiclient.AuthResponse, error) {
	return m.api.Register(ctx, in)
}

// Logout invalidates the refresh token on the backend when one is held, then
// clears the store and the state whatever the backend said.
func (m *Manager) Logout(ctx context.Context) {
	if refreshToken := m.currentRefreshToken(ctx); refreshToken != "" {
		if err := m.api.Logout(ctx, refreshToken); err != nil {
			m.logger.Warn().Err(err).Msg("[Manager.Logout] logout API call failed")
		}
	}

	if err := tokenstore.Clear(ctx, m.store); err != nil {
		m.logger.Err(err).Msg("[Manager.Logout] failed to clear credentials")
	}
	m.setState(State{})
}

// currentRefreshToken reads the stored refresh token, which the API client may
// have rotated since the session was loaded. The in-memory copy is used only
// when the store cannot be read or holds none.
func (m *Manager) currentRefreshToken(ctx context.Context) string {
	values, err := m.store.Get(ctx, tokenstore.KeyRefreshToken)
	if err != nil {
		m.logger.Err(err).Msg("[Manager.Logout] failed to read refresh token")
	} else if token := values[tokenstore.KeyRefreshToken]; token != "" {
		return token
	}
	return m.State().RefreshToken
}

// persist stores the pair and cached identity in one write. Without an
// identity any previously cached one is removed so it cannot be mistaken for
// the new account. Failures are logged; the in-memory session carries on.
func (m *Manager) persist(ctx context.Context, accessToken, refreshToken string, user *identity.Identity) {
	creds := tokenstore.Credentials{AccessToken: accessToken, RefreshToken: refreshToken}
	if user != nil {
		raw, err := user.Marshal()
		if err != nil {
			m.logger.Err(err).Msg("[Manager.persist] failed to encode user")
		}
		creds.User = raw
	}

	if err := tokenstore.SaveCredentials(ctx, m.store, creds); err != nil {
		m.logger.Err(err).Msg("[Manager.persist] failed to store credentials")
		return
	}
	if creds.User == "" {
		if err := m.store.Remove(ctx, tokenstore.KeyUser); err != nil {
			m.logger.Err(err).Msg("[Manager.persist] failed to drop cached user")
		}
	}
}

// resolveIdentity prefers the token's claims and falls back to the cached copy.
func (m *Manager) resolveIdentity(accessToken, cachedUser string) *identity.Identity {
	if user := m.identityFromToken(accessToken); user != nil {
		return user
	}
	if cachedUser == "" {
		return nil
	}
	user, err := identity.Unmarshal(cachedUser)
	if err != nil {
		m.logger.Warn().Err(err).Msg("[Manager.resolveIdentity] cached user unreadable")
		return nil
	}
	return user
}

func (m *Manager) identityFromToken(accessToken string) *identity.Identity {
	user, err := identity.FromUnverifiedToken(accessToken)
	if err != nil {
		m.logger.Debug().Err(err).Msg("no identity in access token")
		return nil
	}
	return user
}

// setState replaces the state and marks the initial load as done.
func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.IsLoading = false
	m.state = s
	m.loaded = true
}
