// Package filestore keeps credentials in a single JSON document on disk.
// Every write replaces the file through a rename, so a Set is atomic.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/promptstudio/tokenstore"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

var _ tokenstore.Store = (*Store)(nil)

type Store struct {
	path string
	lock sync.Mutex
}

// New returns a store backed by path. The file and its directory are created
// on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
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
	changed := false
	for _, k := range keys {
		if _, ok := current[k]; ok {
			delete(current, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(current)
}

func (s *Store) read() (tokenstore.Values, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(tokenstore.Values), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[filestore] read %s: %w", s.path, err)
	}
	values := make(tokenstore.Values)
	if len(b) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("[filestore] decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *Store) write(values tokenstore.Values) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("[filestore] create dir: %w", err)
	}

	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[filestore] encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("[filestore] create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore] chmod temp: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore] write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore] sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filestore] close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("[filestore] replace %s: %w", s.path, err)
	}
	return nil
}
