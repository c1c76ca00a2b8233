package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/promptstudio/apiclient"
	"github.com/jrsteele09/promptstudio/internal/config"
	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
	"github.com/jrsteele09/promptstudio/tokenstore/filestore"
	"github.com/jrsteele09/promptstudio/tokenstore/keyringstore"
	"github.com/jrsteele09/promptstudio/tokenstore/memstore"
	"github.com/jrsteele09/promptstudio/tokenstore/sqlstore"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@x.com"
	testPassword = "password123"
	testUserID   = "123"
)

// backend is a small in-memory PromptStudio server.
type backend struct {
	mu sync.Mutex

	// Every issued pair stays valid until expireAccess, so concurrent
	// refreshes from one command all succeed.
	access       map[string]bool
	refresh      map[string]bool
	generation   int
	refreshFail  bool
	refreshCalls int

	prompts     []apiclient.Prompt
	collections []apiclient.Collection
	nextID      int
	logouts     int

	// errs holds handler failures, checked on the test goroutine.
	errs []error
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	b := &backend{access: map[string]bool{}, refresh: map[string]bool{}}
	t.Cleanup(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		require.Empty(t, b.errs)
	})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/Auth/login", b.login)
	mux.HandleFunc("POST /api/Auth/register", b.register)
	mux.HandleFunc("POST /api/Auth/refresh", b.refreshTokens)
	mux.HandleFunc("POST /api/Auth/logout", b.authed(b.logout))
	mux.HandleFunc("GET /api/User", b.authed(b.currentUser))
	mux.HandleFunc("GET /api/Prompt/me", b.authed(b.listPrompts))
	mux.HandleFunc("POST /api/Prompt", b.authed(b.createPrompt))
	mux.HandleFunc("PUT /api/Prompt/{id}", b.authed(b.updatePrompt))
	mux.HandleFunc("DELETE /api/Prompt/{id}", b.authed(b.deletePrompt))
	mux.HandleFunc("GET /api/PromptCollection/me", b.authed(b.listCollections))
	mux.HandleFunc("POST /api/PromptCollection", b.authed(b.createCollection))
	mux.HandleFunc("PUT /api/PromptCollection/{id}", b.authed(b.updateCollection))
	mux.HandleFunc("DELETE /api/PromptCollection/{id}", b.authed(b.deleteCollection))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON request body. A malformed body is recorded and answered
// with 400.
func (b *backend) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		b.mu.Lock()
		b.errs = append(b.errs, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, err))
		b.mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}

// issue mints a new pair. Callers hold b.mu.
func (b *backend) issue() apiclient.AuthResponse {
	b.generation++
	access, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":   testUserID,
		"email": testEmail,
		"gen":   b.generation,
	}).SignedString([]byte("server-secret"))
	if err != nil {
		b.errs = append(b.errs, err)
	}
	refresh := fmt.Sprintf("refresh-%d", b.generation)
	b.access[access] = true
	b.refresh[refresh] = true
	return apiclient.AuthResponse{AccessToken: access, RefreshToken: refresh}
}

// expireAccess invalidates every access token but keeps the refresh tokens.
func (b *backend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.access)
}

func (b *backend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := b.access[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var in apiclient.LoginRequest
	if !b.decode(w, r, &in) {
		return
	}
	if in.Email != testEmail || in.Password != testPassword {
		b.writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, b.issue())
}

func (b *backend) register(w http.ResponseWriter, r *http.Request) {
	var in apiclient.RegisterRequest
	if !b.decode(w, r, &in) {
		return
	}
	if in.Email == testEmail {
		b.writeJSON(w, http.StatusBadRequest, map[string]any{
			"title":  "One or more validation errors occurred.",
			"errors": map[string][]string{"Email": {"Email is already registered."}},
		})
		return
	}
	b.writeJSON(w, http.StatusOK, apiclient.AuthResponse{AccessToken: "new-a", RefreshToken: "new-r"})
}

func (b *backend) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var in apiclient.RefreshTokenRequest
	if !b.decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if b.refreshFail || !b.refresh[in.RefreshToken] {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	b.writeJSON(w, http.StatusOK, b.issue())
}

func (b *backend) logout(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logouts++
	w.WriteHeader(http.StatusNoContent)
}

func (b *backend) currentUser(w http.ResponseWriter, _ *http.Request) {
	b.writeJSON(w, http.StatusOK, apiclient.User{ID: testUserID, Email: testEmail, Username: "remote-a"})
}

func (b *backend) listPrompts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, b.prompts)
}

func (b *backend) createPrompt(w http.ResponseWriter, r *http.Request) {
	var in apiclient.CreatePromptRequest
	if !b.decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p := apiclient.Prompt{ID: fmt.Sprintf("p%d", b.nextID), Title: in.Title, Content: in.Content, UserID: in.UserID, CollectionID: in.CollectionID}
	b.prompts = append(b.prompts, p)
	b.writeJSON(w, http.StatusOK, p)
}

func (b *backend) updatePrompt(w http.ResponseWriter, r *http.Request) {
	var in apiclient.UpdatePromptRequest
	if !b.decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.prompts {
		if b.prompts[i].ID == r.PathValue("id") {
			b.prompts[i].Title = in.Title
			b.prompts[i].Content = in.Content
			b.prompts[i].CollectionID = in.CollectionID
			b.writeJSON(w, http.StatusOK, b.prompts[i])
			return
		}
	}
	b.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Prompt not found"})
}

func (b *backend) deletePrompt(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.prompts {
		if b.prompts[i].ID == r.PathValue("id") {
			b.prompts = append(b.prompts[:i], b.prompts[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	b.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Prompt not found"})
}

func (b *backend) listCollections(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, b.collections)
}

func (b *backend) createCollection(w http.ResponseWriter, r *http.Request) {
	var in apiclient.CollectionRequest
	if !b.decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	c := apiclient.Collection{ID: fmt.Sprintf("c%d", b.nextID), Name: in.Name, UserID: in.UserID}
	b.collections = append(b.collections, c)
	b.writeJSON(w, http.StatusOK, c)
}

func (b *backend) updateCollection(w http.ResponseWriter, r *http.Request) {
	var in apiclient.CollectionRequest
	if !b.decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.collections {
		if b.collections[i].ID == r.PathValue("id") {
			b.collections[i].Name = in.Name
			b.writeJSON(w, http.StatusOK, b.collections[i])
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (b *backend) deleteCollection(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.collections {
		if b.collections[i].ID == r.PathValue("id") {
			b.collections = append(b.collections[:i], b.collections[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

type cliFixture struct {
	t       *testing.T
	backend *backend
	dataDir string
}

func setupCLI(t *testing.T) *cliFixture {
	t.Helper()
	b, srv := newBackend(t)
	dataDir := t.TempDir()
	t.Setenv("PROMPTSTUDIO_API_URL", srv.URL)
	t.Setenv("PROMPTSTUDIO_DATA_DIR", dataDir)
	t.Setenv("PROMPTSTUDIO_STORE", config.StoreFile)
	t.Setenv("PROMPTSTUDIO_LOG_LEVEL", "disabled")
	return &cliFixture{t: t, backend: b, dataDir: dataDir}
}

// exec runs one CLI invocation and returns stdout and the error.
func (f *cliFixture) exec(stdin string, args ...string) (string, error) {
	f.t.Helper()
	args = append(args, "--env-file", filepath.Join(f.dataDir, "missing.env"))
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func (f *cliFixture) mustExec(args ...string) string {
	f.t.Helper()
	out, err := f.exec("", args...)
	require.NoError(f.t, err)
	return out
}

func (f *cliFixture) login() {
	f.t.Helper()
	f.mustExec("login", "--email", testEmail, "--password", testPassword)
}

func TestLoginWhoamiLogout(t *testing.T) {
	f := setupCLI(t)

	out := f.mustExec("login", "--email", testEmail, "--password", testPassword)
	require.Contains(t, out, "Signed in as a.")

	out = f.mustExec("whoami")
	require.Contains(t, out, "Username: a")
	require.Contains(t, out, "ID:       "+testUserID)

	out = f.mustExec("whoami", "--remote")
	require.Contains(t, out, "Username: remote-a")

	out = f.mustExec("logout")
	require.Contains(t, out, "Signed out.")
	require.Equal(t, 1, f.backend.logouts)

	_, err := f.exec("", "whoami")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Contains(t, errorText(err), "not signed in")
}

func TestLoginPromptsForPassword(t *testing.T) {
	f := setupCLI(t)

	out, err := f.exec(testPassword+"\n", "login", "--email", testEmail)
	require.NoError(t, err)
	require.Contains(t, out, "Password: ")
	require.Contains(t, out, "Signed in as a.")
}

func TestLoginBadCredentials(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec("", "login", "--email", testEmail, "--password", "wrong")
	require.Error(t, err)
	require.Equal(t, "Error: Invalid email or password", errorText(err))
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	f := setupCLI(t)

	_, err := f.exec("", "login", "--email", "not-an-email", "--password", testPassword)
	require.EqualError(t, err, "invalid email format")
	require.Equal(t, "Error: invalid email format", errorText(err))
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	f := setupCLI(t)

	out := f.mustExec("register", "--email", "new@x.com", "--username", "new", "--password", testPassword)
	require.Contains(t, out, "Account created.")

	_, err := f.exec("", "whoami")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	_, err = f.exec("", "register", "--email", testEmail, "--username", "a", "--password", testPassword)
	require.Error(t, err)
	require.Equal(t, "Error: One or more validation errors occurred.", errorText(err))
}

func TestBookmarkLifecycle(t *testing.T) {
	f := setupCLI(t)
	f.login()

	out := f.mustExec("collections", "add", "Work")
	require.Contains(t, out, "Collection created. (c1)")

	out = f.mustExec("prompts", "add", "--title", "Tax questions | ChatGPT", "--url", "https://chatgpt.com/c/1", "--folder", "c1")
	require.Contains(t, out, "Chat bookmarked! (p2)")
	f.mustExec("prompts", "add", "--title", "ChatGPT - Holiday", "--url", "https://chatgpt.com/c/2")

	f.backend.mu.Lock()
	require.Equal(t, "Tax questions", *f.backend.prompts[0].Title)
	require.Equal(t, testUserID, f.backend.prompts[0].UserID)
	require.Equal(t, "Holiday", *f.backend.prompts[1].Title)
	require.Nil(t, f.backend.prompts[1].CollectionID)
	f.backend.mu.Unlock()

	out = f.mustExec("prompts", "list", "--folder", "c1")
	require.Contains(t, out, "Tax questions")
	require.Contains(t, out, "Work")
	require.NotContains(t, out, "Holiday")

	out = f.mustExec("prompts", "list", "-q", "HOLI")
	require.Contains(t, out, "Uncategorized")
	require.NotContains(t, out, "Tax questions")

	f.mustExec("prompts", "edit", "p2", "--folder", "uncategorized", "--title", "Taxes")
	f.backend.mu.Lock()
	require.Equal(t, "Taxes", *f.backend.prompts[0].Title)
	require.Equal(t, "https://chatgpt.com/c/1", *f.backend.prompts[0].Content)
	require.Nil(t, f.backend.prompts[0].CollectionID)
	f.backend.mu.Unlock()

	out = f.mustExec("collections", "list")
	require.Contains(t, out, "Work")
	require.Contains(t, out, "Uncategorized")

	f.mustExec("collections", "rename", "c1", "Play")
	out = f.mustExec("collections", "list")
	require.Contains(t, out, "Play")

	f.mustExec("prompts", "rm", "p2")
	f.mustExec("collections", "rm", "c1")
	f.backend.mu.Lock()
	require.Len(t, f.backend.prompts, 1)
	require.Empty(t, f.backend.collections)
	f.backend.mu.Unlock()

	_, err := f.exec("", "prompts", "add", "--title", "x", "--url", "u", "--folder", "nope")
	require.ErrorContains(t, err, `no collection with id "nope"`)
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := setupCLI(t)
	f.login()
	f.backend.expireAccess()

	out := f.mustExec("prompts", "list")
	require.Contains(t, out, "No bookmarks.")

	f.backend.mu.Lock()
	refreshes := f.backend.refreshCalls
	f.backend.mu.Unlock()
	require.GreaterOrEqual(t, refreshes, 1)

	// The new pair was persisted, so the next run needs no refresh.
	f.mustExec("prompts", "list")
	f.backend.mu.Lock()
	require.Equal(t, refreshes, f.backend.refreshCalls)
	f.backend.mu.Unlock()

	store := filestore.New(filepath.Join(f.dataDir, "credentials.json"))
	creds, err := store.Get(t.Context(), "accessToken", "refreshToken")
	require.NoError(t, err)
	require.NotEqual(t, "refresh-1", creds["refreshToken"])
}

func TestFailedRefreshSignsOut(t *testing.T) {
	f := setupCLI(t)
	f.login()
	f.backend.expireAccess()
	f.backend.mu.Lock()
	f.backend.refreshFail = true
	f.backend.mu.Unlock()

	_, err := f.exec("", "prompts", "list")
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	require.Contains(t, errorText(err), "Your session has expired. Please sign in again.")

	_, err = f.exec("", "whoami")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestFailedCommandClosesStore(t *testing.T) {
	f := setupCLI(t)
	t.Setenv("PROMPTSTUDIO_STORE", config.StoreSQLite)

	var opened *app
	appReady = func(a *app) { opened = a }
	t.Cleanup(func() { appReady = func(*app) {} })

	_, err := f.exec("", "prompts", "list")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.NotNil(t, opened)
	require.IsType(t, &sqlstore.Store{}, opened.store)

	_, err = opened.store.Get(t.Context(), "accessToken")
	require.Error(t, err, "store should be closed once the command returns")
}

func TestTraceFlag(t *testing.T) {
	f := setupCLI(t)
	f.login()

	var stdout, stderr bytes.Buffer
	err := run([]string{"prompts", "list", "--trace", "--env-file", filepath.Join(f.dataDir, "none")}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err)
	require.Contains(t, stderr.String(), "/api/Prompt/me")
}

func TestRootShowsBanner(t *testing.T) {
	f := setupCLI(t)
	t.Setenv("APP_NAME", "PS")

	out := f.mustExec()
	require.Contains(t, out, "Usage:")
	require.Contains(t, out, "prompts")
}

type storeConfig struct {
	backend string
	dir     string
}

func (c storeConfig) GetStoreBackend() string    { return c.backend }
func (c storeConfig) GetCredentialsFile() string { return filepath.Join(c.dir, "credentials.json") }
func (c storeConfig) GetSQLitePath() string      { return filepath.Join(c.dir, "promptstudio.db") }
func (c storeConfig) GetKeyringService() string  { return "promptstudio-test" }

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	s, closeFn, err := openStore(storeConfig{backend: config.StoreFile, dir: dir})
	require.NoError(t, err)
	require.IsType(t, &filestore.Store{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = openStore(storeConfig{backend: config.StoreKeyring, dir: dir})
	require.NoError(t, err)
	require.IsType(t, &keyringstore.Store{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = openStore(storeConfig{backend: config.StoreSQLite, dir: dir})
	require.NoError(t, err)
	require.IsType(t, &sqlstore.Store{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = openStore(storeConfig{backend: config.StoreMemory, dir: dir})
	require.NoError(t, err)
	require.IsType(t, &memstore.Store{}, s)
	require.NoError(t, closeFn())

	_, _, err = openStore(storeConfig{backend: "floppy", dir: dir})
	require.ErrorIs(t, err, apperrors.ErrUnknownStoreBackend)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "nonsense")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger = newLogger(&buf, "DEBUG")
	logger.Debug().Msg("debugging")
	require.Contains(t, buf.String(), "debugging")
}
