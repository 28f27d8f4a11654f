package cart

import (
	"context"
	"errors"
)

// Storage keeps serialized cart snapshots by key.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by storages that can tell when another process
// changed a key. Each receive on the returned channel means "reload".
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}

var (
	ErrNotFound = errors.New("cart not found")

	// ErrWatchUnsupported means the backend cannot announce changes in this
	// deployment. Writes still reconcile against the stored cart.
	ErrWatchUnsupported = errors.New("cart watch unsupported")
)
