package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/promptstudio/apiclient"
	"github.com/jrsteele09/promptstudio/bookmarks"
	"github.com/jrsteele09/promptstudio/internal/config"
	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
	"github.com/jrsteele09/promptstudio/internal/ui"
	"github.com/jrsteele09/promptstudio/session"
	"github.com/jrsteele09/promptstudio/tokenstore"
	"github.com/jrsteele09/promptstudio/tokenstore/filestore"
	"github.com/jrsteele09/promptstudio/tokenstore/keyringstore"
	"github.com/jrsteele09/promptstudio/tokenstore/memstore"
	"github.com/jrsteele09/promptstudio/tokenstore/sqlstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app is everything one command invocation needs, built from config.
type app struct {
	config    config.Config
	logger    zerolog.Logger
	store     tokenstore.Store
	client    *apiclient.Client
	session   *session.Manager
	bookmarks *bookmarks.Service

	closeStore func() error
}

type appOptions struct {
	trace io.Writer
}

func newApp(ctx context.Context, c config.Config, logger zerolog.Logger, opts appOptions) (*app, error) {
	store, closeStore, err := openStore(c)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: c.GetHTTPTimeout()}
	if opts.trace != nil {
		httpClient.Transport = &routeLogger{next: http.DefaultTransport, out: opts.trace}
	}

	client, err := apiclient.New(c.GetAPIBaseURL(), store,
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	manager, err := session.NewManager(client, store, session.WithLogger(logger))
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	manager.LoadAuth(ctx)

	svc, err := bookmarks.NewService(client, bookmarks.WithLogger(logger))
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	logger.Debug().
		Str("api", c.GetAPIBaseURL()).
		Str("store", c.GetStoreBackend()).
		Str("session", manager.Status().String()).
		Msg("client ready")

	return &app{
		config:     c,
		logger:     logger,
		store:      store,
		client:     client,
		session:    manager,
		bookmarks:  svc,
		closeStore: closeStore,
	}, nil
}

func (a *app) Close() error {
	return a.closeStore()
}

// requireSession fails unless the stored session is authenticated.
func (a *app) requireSession() error {
	if !a.session.State().IsAuthenticated {
		return apperrors.ErrNotAuthenticated
	}
	return nil
}

// openStore builds the configured token store. The returned func releases it.
func openStore(c config.StoreConfig) (tokenstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch backend := c.GetStoreBackend(); backend {
	case config.StoreFile:
		return filestore.New(c.GetCredentialsFile()), noop, nil
	case config.StoreKeyring:
		return keyringstore.New(c.GetKeyringService()), noop, nil
	case config.StoreSQLite:
		s, err := sqlstore.Open(c.GetSQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreMemory:
		return memstore.New(), noop, nil
	default:
		return nil, nil, apperrors.Wrapf(apperrors.ErrUnknownStoreBackend, "[openStore] %q", backend)
	}
}

// newLogger builds a console logger at the named level, falling back to warn.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// routeLogger prints each request with its status, coloured by method.
type routeLogger struct {
	next http.RoundTripper
	out  io.Writer
}

func (l *routeLogger) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.next.RoundTrip(r)
	if err != nil {
		fmt.Fprintf(l.out, "[%-19s] %s %s\n", ui.Method(r.Method), r.URL.Path, err)
		return nil, err
	}
	fmt.Fprintf(l.out, "[%-19s] %s %s %s\n", ui.Method(r.Method), r.URL.Path, ui.Status(resp.StatusCode), time.Since(start).Round(time.Millisecond))
	return resp, nil
}
