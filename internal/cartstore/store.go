// Package cartstore owns a shopper's cart: it validates mutations against the
// catalog, notifies subscribers of every committed change and mirrors the
// cart into a persistent key/value store.
package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/rocketshoes/cartstore/internal/catalog"
	"github.com/rocketshoes/cartstore/internal/domain"
	"github.com/rocketshoes/cartstore/internal/notify"
	"github.com/rocketshoes/cartstore/internal/storage"
	apperrors "github.com/rocketshoes/cartstore/pkg/errors"
)

// DefaultKey is the storage key the cart is persisted under.
const DefaultKey = "@RocketShoes:cart"

// UpdateProductAmount asks for a line item's amount to be set to Amount.
type UpdateProductAmount struct {
	ProductID int `json:"product_id"`
	Amount    int `json:"amount"`
}

// Subscriber receives a snapshot after every committed change, with the
// context and operation of the mutation that made it. It runs while the
// store's mutation lock is held and must not call back into the store's
// mutating methods.
type Subscriber func(ctx context.Context, op notify.Operation, cart domain.Cart)

// Option configures a Store.
type Option func(*Store)

// WithSubscriber registers fn before the cart is loaded.
func WithSubscriber(fn Subscriber) Option {
	return func(s *Store) {
		s.subscribe(fn)
	}
}

// Store holds one cart. Mutations are serialized; Cart may be called at any
// time and never waits on a catalog call.
type Store struct {
	key     string
	catalog catalog.Service
	storage storage.Store
	logger  *slog.Logger

	// opMu is held for the whole read-fetch-commit sequence of a mutation.
	opMu sync.Mutex

	mu    sync.RWMutex
	cart  domain.Cart
	dirty bool

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

// New creates a store and loads the cart saved under key. A missing or
// unparsable value yields an empty cart; a storage read error is returned so
// the saved cart is never replaced by an empty one. Loading never writes.
func New(ctx context.Context, key string, cat catalog.Service, st storage.Store, logger *slog.Logger, opts ...Option) (*Store, error) {
	if key == "" {
		return nil, errors.New("cartstore: empty storage key")
	}
	if cat == nil || st == nil {
		return nil, errors.New("cartstore: catalog and storage are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		key:     key,
		catalog: cat,
		storage: st,
		logger:  logger.With(slog.String("cart_key", key)),
		subs:    make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}

	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cart = cart
	return s, nil
}

func (s *Store) load(ctx context.Context) (domain.Cart, error) {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart %s: %w", s.key, err)
	}
	if !found {
		return domain.Cart{Items: []domain.LineItem{}}, nil
	}

	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.WarnContext(ctx, "saved cart is not valid JSON, starting empty",
			slog.String("error", err.Error()),
		)
		return domain.Cart{Items: []domain.LineItem{}}, nil
	}

	cart, dropped := domain.Cart{Items: items}.Normalize()
	if dropped > 0 {
		s.logger.WarnContext(ctx, "saved cart had invalid or duplicate items",
			slog.Int("dropped", dropped),
		)
	}
	s.logger.DebugContext(ctx, "cart loaded", slog.Int("items", cart.ItemCount()))
	return cart, nil
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Cart returns a snapshot of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Dirty reports whether the cart has changes not yet written to storage.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	id := s.subscribe(fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) subscribe(fn Subscriber) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return id
}

// AddProduct adds one unit of a product. The product's stock is checked
// first; a new line item is filled from the catalog's product metadata.
func (s *Store) AddProduct(ctx context.Context, productID int) (err error) {
	defer func() { operationsTotal.WithLabelValues(string(notify.OpAdd), outcomeOf(err)).Inc() }()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	current := s.Cart()

	stock, err := s.getStock(ctx, productID)
	if err != nil {
		return err
	}

	idx := current.FindIndex(productID)
	requested := 1
	if idx >= 0 {
		requested = current.Items[idx].Amount + 1
	}
	if requested > stock.Amount {
		return apperrors.StockExceeded(productID, requested, stock.Amount)
	}

	items := current.Items
	if idx >= 0 {
		items[idx].Amount = requested
	} else {
		product, err := s.getProduct(ctx, productID)
		if err != nil {
			return err
		}
		product.ID = productID
		items = append(items, domain.NewLineItem(product, 1))
	}

	s.commit(ctx, domain.Cart{Items: items}, notify.OpAdd, productID)
	return nil
}

// RemoveProduct removes a product's line item.
func (s *Store) RemoveProduct(ctx context.Context, productID int) (err error) {
	defer func() { operationsTotal.WithLabelValues(string(notify.OpRemove), outcomeOf(err)).Inc() }()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	current := s.Cart()
	idx := current.FindIndex(productID)
	if idx < 0 {
		return apperrors.NotFound("cart item", strconv.Itoa(productID))
	}

	items := make([]domain.LineItem, 0, len(current.Items)-1)
	items = append(items, current.Items[:idx]...)
	items = append(items, current.Items[idx+1:]...)

	s.commit(ctx, domain.Cart{Items: items}, notify.OpRemove, productID)
	return nil
}

// UpdateProductAmount sets a line item's amount. Amounts of zero or less are
// ignored without contacting the catalog; removing an item goes through
// RemoveProduct.
func (s *Store) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) (err error) {
	if req.Amount <= 0 {
		operationsTotal.WithLabelValues(string(notify.OpUpdate), outcomeNoop).Inc()
		return nil
	}
	defer func() { operationsTotal.WithLabelValues(string(notify.OpUpdate), outcomeOf(err)).Inc() }()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	stock, err := s.getStock(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if req.Amount > stock.Amount {
		return apperrors.StockExceeded(req.ProductID, req.Amount, stock.Amount)
	}

	current := s.Cart()
	idx := current.FindIndex(req.ProductID)
	if idx < 0 {
		return apperrors.NotFound("cart item", strconv.Itoa(req.ProductID))
	}
	current.Items[idx].Amount = req.Amount

	s.commit(ctx, current, notify.OpUpdate, req.ProductID)
	return nil
}

// Persist writes the cart to storage if it has uncommitted changes. On
// failure the cart stays dirty so a later commit or Persist retries.
func (s *Store) Persist(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.persistLocked(ctx)
}

// commit must be called with opMu held.
func (s *Store) commit(ctx context.Context, next domain.Cart, op notify.Operation, productID int) {
	s.mu.Lock()
	s.cart = next
	s.dirty = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cart updated",
		slog.String("operation", string(op)),
		slog.Int("product_id", productID),
		slog.Int("items", next.ItemCount()),
		slog.Int("quantity", next.Quantity()),
	)

	s.notifySubscribers(ctx, op, next)

	if err := s.persistLocked(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) notifySubscribers(ctx context.Context, op notify.Operation, cart domain.Cart) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ctx, op, cart.Clone())
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	s.mu.RLock()
	if !s.dirty {
		s.mu.RUnlock()
		return nil
	}
	blob, err := json.Marshal(s.cart.Clone().Items)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := s.storage.Set(ctx, s.key, string(blob)); err != nil {
		persistFailuresTotal.Inc()
		return fmt.Errorf("persist cart: %w", err)
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}

func (s *Store) getStock(ctx context.Context, productID int) (domain.Stock, error) {
	start := time.Now()
	stock, err := s.catalog.GetStock(ctx, productID)
	catalogDuration.WithLabelValues("stock").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Stock{}, apperrors.BadGateway("catalog", err)
	}
	return stock, nil
}

func (s *Store) getProduct(ctx context.Context, productID int) (domain.Product, error) {
	start := time.Now()
	product, err := s.catalog.GetProduct(ctx, productID)
	catalogDuration.WithLabelValues("product").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Product{}, apperrors.BadGateway("catalog", err)
	}
	return product, nil
}
