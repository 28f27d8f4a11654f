package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileStorage writes one JSON document per key under a directory.
type FileStorage struct {
	dir string

	mu      sync.Mutex
	written map[string]ownWrite
}

// ownWrite is what this instance last wrote to a key and whether it has
// removed it since.
type ownWrite struct {
	data    []byte
	deleted bool
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{
		dir:     dir,
		written: make(map[string]ownWrite),
	}
}

func (f *FileStorage) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	return data, nil
}

func (f *FileStorage) Save(_ context.Context, key string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cart file: %w", err)
	}

	f.remember(key, ownWrite{data: bytes.Clone(data)})
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}

func (f *FileStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	last := f.written[key]
	f.written[key] = ownWrite{data: last.data, deleted: true}
	f.mu.Unlock()
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cart file: %w", err)
	}
	return nil
}

// Watch signals changes to the key's file made by anyone but this
// instance. The channel is closed when ctx is done or the watcher fails.
func (f *FileStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create cart watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch cart dir: %w", err)
	}

	target := filepath.Clean(f.path(key))
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op == fsnotify.Chmod {
					continue
				}
				if f.isOwn(key) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *FileStorage) remember(key string, w ownWrite) {
	f.mu.Lock()
	f.written[key] = w
	f.mu.Unlock()
}

// isOwn reports whether the key's file still holds what this instance last
// wrote, so events caused by our own rename or remove can be skipped.
func (f *FileStorage) isOwn(key string) bool {
	f.mu.Lock()
	last, ok := f.written[key]
	f.mu.Unlock()
	if !ok {
		return false
	}

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return last.deleted
	}
	if err != nil {
		return false
	}
	return last.data != nil && bytes.Equal(data, last.data)
}

func (f *FileStorage) path(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(f.dir, name+".json")
}
