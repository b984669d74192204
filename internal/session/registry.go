// Package session keeps one cart store per shopper session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketshoes/cartstore/internal/cartstore"
	"github.com/rocketshoes/cartstore/internal/catalog"
	"github.com/rocketshoes/cartstore/internal/domain"
	"github.com/rocketshoes/cartstore/internal/notify"
	"github.com/rocketshoes/cartstore/internal/storage"
)

// MaxIDLength bounds session IDs accepted by the registry.
const MaxIDLength = 128

// ErrInvalidID is returned for empty or oversized session IDs.
var ErrInvalidID = errors.New("invalid session id")

// Hook is called after every committed change to any session's cart. ctx is
// the context of the request that made the change.
type Hook func(ctx context.Context, sessionID string, op notify.Operation, cart domain.Cart)

type entry struct {
	store    *cartstore.Store
	lastSeen time.Time
}

// Registry lazily opens a cartstore.Store per session. Each store persists
// under "<prefix>:<sessionID>".
type Registry struct {
	prefix  string
	catalog catalog.Service
	storage storage.Store
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	hooks   []Hook
}

// NewRegistry creates a registry. An empty prefix means cartstore.DefaultKey.
func NewRegistry(prefix string, cat catalog.Service, st storage.Store, logger *slog.Logger) *Registry {
	if prefix == "" {
		prefix = cartstore.DefaultKey
	}
	return &Registry{
		prefix:  prefix,
		catalog: cat,
		storage: st,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// KeyFor returns the storage key for a session.
func (r *Registry) KeyFor(sessionID string) string {
	return r.prefix + ":" + sessionID
}

// OnChange registers h on every store opened after this call.
func (r *Registry) OnChange(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Get returns the store for sessionID, loading it on first use. The cart is
// loaded without holding the registry lock; if two callers load the same
// session concurrently the first one registered wins.
func (r *Registry) Get(ctx context.Context, sessionID string) (*cartstore.Store, error) {
	if sessionID == "" || len(sessionID) > MaxIDLength {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.store, nil
	}
	opts := make([]cartstore.Option, 0, len(r.hooks))
	for _, h := range r.hooks {
		opts = append(opts, cartstore.WithSubscriber(func(ctx context.Context, op notify.Operation, c domain.Cart) {
			h(ctx, sessionID, op, c)
		}))
	}
	r.mu.Unlock()

	store, err := cartstore.New(ctx, r.KeyFor(sessionID), r.catalog, r.storage,
		r.logger.With(slog.String("session_id", sessionID)), opts...)
	if err != nil {
		return nil, fmt.Errorf("open cart for session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		return e.store, nil
	}
	r.entries[sessionID] = &entry{store: store, lastSeen: r.now()}
	return store, nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) snapshot() map[string]*cartstore.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*cartstore.Store, len(r.entries))
	for id, e := range r.entries {
		out[id] = e.store
	}
	return out
}

// Flush persists every store with unsaved changes.
func (r *Registry) Flush(ctx context.Context) error {
	var errs []error
	flushed := 0
	for id, store := range r.snapshot() {
		if !store.Dirty() {
			continue
		}
		if err := store.Persist(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
			continue
		}
		flushed++
	}

	r.logger.InfoContext(ctx, "cart sessions flushed",
		slog.Int("flushed", flushed),
		slog.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

// EvictIdle closes sessions not used for longer than idle. A session whose
// cart cannot be persisted stays open, as does one used again while it was
// being persisted. It returns the number evicted.
func (r *Registry) EvictIdle(ctx context.Context, idle time.Duration) int {
	r.mu.Lock()
	cutoff := r.now().Add(-idle)
	candidates := make(map[string]*entry)
	for id, e := range r.entries {
		if !e.lastSeen.After(cutoff) {
			candidates[id] = e
		}
	}
	r.mu.Unlock()

	persisted := make([]string, 0, len(candidates))
	for id, e := range candidates {
		if err := e.store.Persist(ctx); err != nil {
			r.logger.WarnContext(ctx, "keeping idle session with unsaved cart",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		persisted = append(persisted, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for _, id := range persisted {
		e, ok := r.entries[id]
		if !ok || e != candidates[id] || e.lastSeen.After(cutoff) || e.store.Dirty() {
			continue
		}
		delete(r.entries, id)
		evicted++
	}
	return evicted
}
