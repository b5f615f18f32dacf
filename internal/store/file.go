package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileStore keeps every collection in its own JSON file under dir.
// Files are replaced atomically: written to a temporary file first, then
// renamed over the original.
type fileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFileStore(dir string) (*fileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &fileStore{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// lock returns the mutex guarding one collection.
func (store *fileStore) lock(name string) *sync.Mutex {
	store.mu.Lock()
	defer store.mu.Unlock()

	m, ok := store.locks[name]
	if !ok {
		m = &sync.Mutex{}
		store.locks[name] = m
	}
	return m
}

func (store *fileStore) path(name string) string {
	return filepath.Join(store.dir, filepath.Base(name))
}

func (store *fileStore) Read(_ context.Context, name string) ([]byte, error) {
	m := store.lock(name)
	m.Lock()
	defer m.Unlock()

	return store.read(name)
}

func (store *fileStore) read(name string) ([]byte, error) {
	data, err := os.ReadFile(store.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (store *fileStore) Modify(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error {
	m := store.lock(name)
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := store.read(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}

	return store.write(name, updated)
}

func (store *fileStore) write(name string, data []byte) error {
	path := store.path(name)

	tmp, err := os.CreateTemp(store.dir, filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (store *fileStore) Close() error {
	return nil
}
