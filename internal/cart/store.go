// Package cart holds the customer's pending selection and keeps it in sync
// with a Storage and any number of subscribers.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/DRIVN-COOK/front-office/internal/domain"
	"github.com/DRIVN-COOK/front-office/internal/logger"
	"github.com/DRIVN-COOK/front-office/internal/metrics"
	"github.com/DRIVN-COOK/front-office/internal/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemUnavailable = errors.New("item is not available")
)

const maxLineQty = math.MaxInt32

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Store is the single source of truth for one cart key. Mutations are
// serialized, persisted, then published.
type Store struct {
	mu      sync.Mutex
	key     string
	storage Storage
	lines   []domain.CartLine

	subsMu  sync.Mutex
	subs    map[int]chan []domain.CartLine
	nextSub int

	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewStore loads the cart stored under key. Missing or corrupt data yields
// an empty cart; only storage failures are returned.
func NewStore(ctx context.Context, storage Storage, key string, opts ...Option) (*Store, error) {
	s := &Store{
		key:     key,
		storage: storage,
		subs:    make(map[int]chan []domain.CartLine),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDefault(s.log)

	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.lines = lines
	return s, nil
}

func (s *Store) Key() string { return s.key }

// Lines returns a snapshot of the current lines.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLines(s.lines)
}

func (s *Store) Count() int {
	return pricing.ItemCount(s.Lines())
}

func (s *Store) Totals() pricing.Totals {
	return pricing.Cart(s.Lines())
}

// Add merges qty into the line for item, creating it when absent.
func (s *Store) Add(ctx context.Context, item domain.MenuItem, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if !item.Available() {
		return ErrItemUnavailable
	}

	return s.mutate(ctx, "add", func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		for i := range lines {
			if lines[i].Item.ID == item.ID {
				lines[i].Qty = addQty(lines[i].Qty, qty)
				return lines, true
			}
		}
		return append(lines, domain.CartLine{Item: item, Qty: qty}), true
	})
}

// Remove drops the line for itemID. Absent ids are ignored.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	return s.mutate(ctx, "remove", func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		out := lines[:0]
		removed := false
		for _, l := range lines {
			if l.Item.ID == itemID {
				removed = true
				continue
			}
			out = append(out, l)
		}
		return out, removed
	})
}

// SetQty replaces the quantity of itemID with max(1, floor(qty)).
// Non-finite values count as 1.
func (s *Store) SetQty(ctx context.Context, itemID string, qty float64) error {
	n := ClampQty(qty)
	return s.mutate(ctx, "set_qty", func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		for i := range lines {
			if lines[i].Item.ID == itemID {
				if lines[i].Qty == n {
					return lines, false
				}
				lines[i].Qty = n
				return lines, true
			}
		}
		return lines, false
	})
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.lines = nil
	s.metrics.CartMutation("clear")
	s.publish()
	return nil
}

// Subscribe returns a channel receiving every new snapshot. A subscriber
// that falls behind only sees the latest one. Call the returned func to stop.
func (s *Store) Subscribe() (<-chan []domain.CartLine, func()) {
	ch := make(chan []domain.CartLine, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

// Run reloads the cart whenever the storage reports a foreign write.
// It returns immediately when the storage cannot be watched; mutations
// still apply on top of the stored cart.
func (s *Store) Run(ctx context.Context) error {
	w, ok := s.storage.(Watcher)
	if !ok {
		return nil
	}

	changes, err := w.Watch(ctx, s.key)
	if errors.Is(err, ErrWatchUnsupported) {
		s.log.InfoContext(ctx, "cart changes from other processes are picked up on next write", logger.Err(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch cart: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := s.Reload(ctx); err != nil {
				s.log.WarnContext(ctx, "cart reload failed", logger.Err(err))
			}
		}
	}
}

// Reload replaces the in-memory cart with the stored one and notifies
// subscribers.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.lines = lines
	s.publish()
	return nil
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]domain.CartLine) ([]domain.CartLine, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Apply on top of what is stored now. Another process may have written
	// since our last load and not every backend announces it.
	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	if !sameLines(current, s.lines) {
		s.lines = current
		s.publish()
	}

	next, changed := fn(domain.CloneLines(s.lines))
	if !changed {
		return nil
	}
	if next == nil {
		next = []domain.CartLine{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	s.lines = next
	s.metrics.CartMutation(op)
	s.publish()
	return nil
}

// publish must be called with s.mu held so snapshots go out in order.
func (s *Store) publish() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		snap := domain.CloneLines(s.lines)
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Store) load(ctx context.Context) ([]domain.CartLine, error) {
	data, err := s.storage.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		s.log.WarnContext(ctx, "discarding unreadable cart", slog.String("key", s.key), logger.Err(err))
		return nil, nil
	}
	return Normalize(lines), nil
}

// Normalize merges duplicate items, drops lines without an item id and
// clamps quantities to at least 1.
func Normalize(lines []domain.CartLine) []domain.CartLine {
	var out []domain.CartLine
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Item.ID == "" {
			continue
		}
		if l.Qty < 1 {
			l.Qty = 1
		}
		if i, ok := index[l.Item.ID]; ok {
			out[i].Qty = addQty(out[i].Qty, l.Qty)
			continue
		}
		index[l.Item.ID] = len(out)
		out = append(out, l)
	}
	return out
}

// ClampQty converts a requested quantity into a valid line quantity.
func ClampQty(qty float64) int {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 1
	}
	f := math.Floor(qty)
	if f < 1 {
		return 1
	}
	if f > maxLineQty {
		return maxLineQty
	}
	return int(f)
}

func sameLines(a, b []domain.CartLine) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	x, errA := json.Marshal(a)
	y, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(x, y)
}

func addQty(a, b int) int {
	if a > maxLineQty-b {
		return maxLineQty
	}
	return a + b
}
