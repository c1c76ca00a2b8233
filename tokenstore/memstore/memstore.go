// Package memstore is an in-process tokenstore.Store. State lasts as long as
// the value does.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/jrsteele09/promptstudio/tokenstore"
)

var _ tokenstore.Store = (*Store)(nil)

type Store struct {
	values tokenstore.Values
	lock   sync.RWMutex
}

func New() *Store {
	return &Store{values: make(tokenstore.Values)}
}

// NewWithValues returns a store seeded with a copy of values.
func NewWithValues(values tokenstore.Values) *Store {
	s := New()
	maps.Copy(s.values, values)
	return s
}

func (s *Store) Get(_ context.Context, keys ...string) (tokenstore.Values, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return tokenstore.Pick(s.values, keys...), nil
}

func (s *Store) Set(_ context.Context, values tokenstore.Values) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	maps.Copy(s.values, values)
	return nil
}

func (s *Store) Remove(_ context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Snapshot returns a copy of everything stored.
func (s *Store) Snapshot() tokenstore.Values {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return maps.Clone(s.values)
}
