// Package keyringstore keeps credentials in the operating system's secret
// store (macOS Keychain, Secret Service, Windows Credential Manager).
//
// All values live in one keyring item encoded as JSON, so each Set is a single
// keyring write.
package keyringstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/jrsteele09/promptstudio/tokenstore"
	"github.com/zalando/go-keyring"
)

// DefaultItem is the keyring account name the credentials are stored under.
const DefaultItem = "credentials"

var _ tokenstore.Store = (*Store)(nil)

type Store struct {
	service string
	item    string
	lock    sync.Mutex
}

type Option func(*Store)

// WithItem overrides the keyring account name.
func WithItem(item string) Option {
	return func(s *Store) {
		s.item = item
	}
}

func New(service string, options ...Option) *Store {
	s := &Store{service: service, item: DefaultItem}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, keys ...string) (tokenstore.Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.read()
	if err != nil {
		return nil, err
	}
	return tokenstore.Pick(values, keys...), nil
}

func (s *Store) Set(ctx context.Context, values tokenstore.Values) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	maps.Copy(current, values)
	return s.write(current)
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := keyring.Delete(s.service, s.item); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("[keyringstore] delete: %w", err)
		}
		return nil
	}
	return s.write(current)
}

func (s *Store) read() (tokenstore.Values, error) {
	raw, err := keyring.Get(s.service, s.item)
	if errors.Is(err, keyring.ErrNotFound) {
		return make(tokenstore.Values), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[keyringstore] get: %w", err)
	}
	values := make(tokenstore.Values)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("[keyringstore] decode: %w", err)
	}
	return values, nil
}

func (s *Store) write(values tokenstore.Values) error {
	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[keyringstore] encode: %w", err)
	}
	if err := keyring.Set(s.service, s.item, string(b)); err != nil {
		return fmt.Errorf("[keyringstore] set: %w", err)
	}
	return nil
}
