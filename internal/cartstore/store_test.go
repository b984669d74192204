package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketshoes/cartstore/internal/catalog"
	catalogmem "github.com/rocketshoes/cartstore/internal/catalog/memory"
	"github.com/rocketshoes/cartstore/internal/domain"
	"github.com/rocketshoes/cartstore/internal/notify"
	storagemem "github.com/rocketshoes/cartstore/internal/storage/memory"
	apperrors "github.com/rocketshoes/cartstore/pkg/errors"
	"github.com/rocketshoes/cartstore/pkg/logger"
)

// ============================================================================
// Test Helpers
// ============================================================================

var (
	sneaker = domain.NewProduct(1, "Tênis de Caminhada Leve Confortável", 179.9, "https://example.com/1.jpg")
	runner  = domain.NewProduct(2, "Tênis VR Caminhada Confortável", 139.9, "https://example.com/2.jpg")
)

type fixture struct {
	catalog *catalogmem.Catalog
	storage *storagemem.Store
	store   *Store
}

// newFixture seeds storage with items (if any) and opens a store over it.
func newFixture(t *testing.T, items ...domain.LineItem) *fixture {
	t.Helper()
	cat := catalogmem.New()
	st := storagemem.NewStore()
	if items != nil {
		blob, err := json.Marshal(items)
		require.NoError(t, err)
		require.NoError(t, st.Set(context.Background(), DefaultKey, string(blob)))
	}

	s, err := New(context.Background(), DefaultKey, cat, st, logger.Discard())
	require.NoError(t, err)
	return &fixture{catalog: cat, storage: st, store: s}
}

func (f *fixture) persisted(t *testing.T) []domain.LineItem {
	t.Helper()
	raw, found, err := f.storage.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, found)
	var items []domain.LineItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func item(p domain.Product, amount int) domain.LineItem {
	return domain.NewLineItem(p, amount)
}

// ============================================================================
// Load Tests
// ============================================================================

func TestNew_EmptyStorageStartsEmptyAndDoesNotWrite(t *testing.T) {
	f := newFixture(t)

	assert.Empty(t, f.store.Cart().Items)
	assert.NotNil(t, f.store.Cart().Items)
	assert.False(t, f.store.Dirty())
	assert.Equal(t, 0, f.storage.Writes())

	require.NoError(t, f.store.Persist(context.Background()))
	assert.Equal(t, 0, f.storage.Writes())
}

func TestNew_LoadsSavedCart(t *testing.T) {
	f := newFixture(t, item(sneaker, 2), item(runner, 1))
	writesAfterSeed := f.storage.Writes()

	cart := f.store.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, item(sneaker, 2), cart.Items[0])
	assert.Equal(t, item(runner, 1), cart.Items[1])
	assert.Equal(t, writesAfterSeed, f.storage.Writes())
}

func TestNew_UnparsableValueStartsEmpty(t *testing.T) {
	st := storagemem.NewStore()
	require.NoError(t, st.Set(context.Background(), DefaultKey, "{not json"))

	s, err := New(context.Background(), DefaultKey, catalogmem.New(), st, logger.Discard())
	require.NoError(t, err)
	assert.Empty(t, s.Cart().Items)
	assert.Equal(t, 1, st.Writes())
}

func TestNew_ReadErrorIsReturned(t *testing.T) {
	st := storagemem.NewStore()
	offline := errors.New("storage offline")
	st.FailReads(offline)

	s, err := New(context.Background(), DefaultKey, catalogmem.New(), st, logger.Discard())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, offline))
	assert.Equal(t, 0, st.Writes())
}

func TestNew_DropsInvalidAndDuplicateItems(t *testing.T) {
	st := storagemem.NewStore()
	blob := `[
		{"id":1,"title":"a","price":10,"amount":2},
		{"id":2,"title":"b","price":20,"amount":0},
		{"id":1,"title":"a","price":10,"amount":5},
		{"id":3,"title":"c","price":30,"amount":-1},
		{"id":0,"title":"d","price":40,"amount":1},
		{"id":4,"title":"e","price":50,"amount":1}
	]`
	require.NoError(t, st.Set(context.Background(), DefaultKey, blob))

	s, err := New(context.Background(), DefaultKey, catalogmem.New(), st, logger.Discard())
	require.NoError(t, err)

	cart := s.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 1, cart.Items[0].ID)
	assert.Equal(t, 5, cart.Items[0].Amount)
	assert.Equal(t, 4, cart.Items[1].ID)
	assert.False(t, cart.HasDuplicates())
	assert.False(t, s.Dirty())
	assert.Equal(t, 1, st.Writes())
}

func TestAddProduct_CatalogFieldsSurviveReload(t *testing.T) {
	var boot domain.Product
	require.NoError(t, json.Unmarshal([]byte(
		`{"id":4,"name":"Bota","price":50,"brand":"Rocket","tags":["couro","inverno"],"meta":{"sku":"B-4"}}`), &boot))

	cat := catalogmem.New()
	cat.Put(boot, 3)
	st := storagemem.NewStore()

	s, err := New(context.Background(), DefaultKey, cat, st, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.AddProduct(context.Background(), 4))
	require.NoError(t, s.Persist(context.Background()))

	raw, found, err := st.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t,
		`[{"id":4,"name":"Bota","price":50,"brand":"Rocket","tags":["couro","inverno"],"meta":{"sku":"B-4"},"amount":1}]`,
		raw)

	reloaded, err := New(context.Background(), DefaultKey, cat, st, logger.Discard())
	require.NoError(t, err)
	cart := reloaded.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Bota", cart.Items[0].Title())
	assert.JSONEq(t, `{"sku":"B-4"}`, string(cart.Items[0].Attributes["meta"]))

	out, err := json.Marshal(cart.Items)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestNew_NullValueStartsEmpty(t *testing.T) {
	st := storagemem.NewStore()
	require.NoError(t, st.Set(context.Background(), DefaultKey, "null"))

	s, err := New(context.Background(), DefaultKey, catalogmem.New(), st, logger.Discard())
	require.NoError(t, err)
	assert.NotNil(t, s.Cart().Items)
	assert.Empty(t, s.Cart().Items)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(context.Background(), "", catalogmem.New(), storagemem.NewStore(), nil)
	assert.Error(t, err)

	_, err = New(context.Background(), DefaultKey, nil, storagemem.NewStore(), nil)
	assert.Error(t, err)

	_, err = New(context.Background(), DefaultKey, catalogmem.New(), nil, nil)
	assert.Error(t, err)
}

// ============================================================================
// AddProduct Tests
// ============================================================================

func TestAddProduct_NewItem(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)

	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	assert.Equal(t, []domain.LineItem{item(sneaker, 1)}, f.store.Cart().Items)
	assert.Equal(t, []domain.LineItem{item(sneaker, 1)}, f.persisted(t))
	assert.False(t, f.store.Dirty())
}

func TestAddProduct_ExistingItemIncrements(t *testing.T) {
	f := newFixture(t, item(sneaker, 1), item(runner, 1))
	f.catalog.Put(sneaker, 5)

	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	cart := f.store.Cart()
	assert.Equal(t, 2, cart.Items[0].Amount)
	assert.Equal(t, 1, cart.Items[1].Amount)
	assert.Equal(t, 0, f.catalog.Calls("GetProduct"))
}

func TestAddProduct_AppendsAtEnd(t *testing.T) {
	f := newFixture(t, item(runner, 1))
	f.catalog.Put(sneaker, 5)

	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	cart := f.store.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Items[0].ID)
	assert.Equal(t, 1, cart.Items[1].ID)
}

func TestAddProduct_StockExceeded(t *testing.T) {
	f := newFixture(t, item(sneaker, 1))
	f.catalog.Put(sneaker, 1)
	writes := f.storage.Writes()

	err := f.store.AddProduct(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStockExceeded))
	assert.Equal(t, []domain.LineItem{item(sneaker, 1)}, f.store.Cart().Items)
	assert.Equal(t, writes, f.storage.Writes())
}

func TestAddProduct_ZeroStockRejectsNewItem(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 0)

	err := f.store.AddProduct(context.Background(), 1)

	assert.True(t, errors.Is(err, apperrors.ErrStockExceeded))
	assert.Empty(t, f.store.Cart().Items)
	assert.Equal(t, 0, f.catalog.Calls("GetProduct"))
}

func TestAddProduct_StockLookupFails(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)
	f.catalog.FailStock(errors.New("connection refused"))

	err := f.store.AddProduct(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBadGateway))
	assert.Empty(t, f.store.Cart().Items)
	assert.Equal(t, 0, f.storage.Writes())
}

func TestAddProduct_ProductLookupFails(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)
	f.catalog.FailProduct(errors.New("malformed response"))

	err := f.store.AddProduct(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBadGateway))
	assert.Empty(t, f.store.Cart().Items)
	assert.False(t, f.store.Dirty())
}

func TestAddProduct_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	err := f.store.AddProduct(context.Background(), 42)

	assert.True(t, errors.Is(err, apperrors.ErrBadGateway))
	assert.Empty(t, f.store.Cart().Items)
}

// ============================================================================
// RemoveProduct Tests
// ============================================================================

func TestRemoveProduct_Present(t *testing.T) {
	f := newFixture(t, item(runner, 3))

	require.NoError(t, f.store.RemoveProduct(context.Background(), 2))

	assert.Empty(t, f.store.Cart().Items)
	assert.Empty(t, f.persisted(t))
	assert.Equal(t, 0, f.catalog.Calls("GetStock"))
}

func TestRemoveProduct_KeepsOrderOfOthers(t *testing.T) {
	third := domain.NewProduct(3, "Tênis Adidas Duramo Lite 2.0", 219.9, "")
	f := newFixture(t, item(sneaker, 1), item(runner, 1), item(third, 1))

	require.NoError(t, f.store.RemoveProduct(context.Background(), 2))

	cart := f.store.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 1, cart.Items[0].ID)
	assert.Equal(t, 3, cart.Items[1].ID)
}

func TestRemoveProduct_Absent(t *testing.T) {
	f := newFixture(t)

	err := f.store.RemoveProduct(context.Background(), 99)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, f.store.Cart().Items)
	assert.Equal(t, 0, f.storage.Writes())
}

// ============================================================================
// UpdateProductAmount Tests
// ============================================================================

func TestUpdateProductAmount_SetsAmount(t *testing.T) {
	f := newFixture(t, item(sneaker, 2))
	f.catalog.Put(sneaker, 10)

	require.NoError(t, f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 7}))

	assert.Equal(t, []domain.LineItem{item(sneaker, 7)}, f.store.Cart().Items)
	assert.Equal(t, []domain.LineItem{item(sneaker, 7)}, f.persisted(t))
}

func TestUpdateProductAmount_NonPositiveIsNoop(t *testing.T) {
	for _, amount := range []int{0, -1, -100} {
		f := newFixture(t, item(sneaker, 2))
		f.catalog.Put(sneaker, 10)
		writes := f.storage.Writes()

		var notified int
		f.store.Subscribe(func(context.Context, notify.Operation, domain.Cart) { notified++ })

		err := f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: amount})

		require.NoError(t, err, "amount %d", amount)
		assert.Equal(t, []domain.LineItem{item(sneaker, 2)}, f.store.Cart().Items)
		assert.Equal(t, 0, f.catalog.Calls("GetStock"))
		assert.Equal(t, 0, notified)
		assert.Equal(t, writes, f.storage.Writes())
	}
}

func TestUpdateProductAmount_NoopIgnoresUnknownProduct(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 99, Amount: 0}))
}

func TestUpdateProductAmount_StockExceeded(t *testing.T) {
	f := newFixture(t, item(sneaker, 2))
	f.catalog.Put(sneaker, 3)

	err := f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 4})

	assert.True(t, errors.Is(err, apperrors.ErrStockExceeded))
	assert.Equal(t, 2, f.store.Cart().Items[0].Amount)
}

func TestUpdateProductAmount_ExactlyStockIsAllowed(t *testing.T) {
	f := newFixture(t, item(sneaker, 2))
	f.catalog.Put(sneaker, 3)

	require.NoError(t, f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 3}))
	assert.Equal(t, 3, f.store.Cart().Items[0].Amount)
}

func TestUpdateProductAmount_AbsentItem(t *testing.T) {
	f := newFixture(t, item(runner, 1))
	f.catalog.Put(sneaker, 10)

	err := f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 2})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, []domain.LineItem{item(runner, 1)}, f.store.Cart().Items)
}

func TestUpdateProductAmount_StockCheckedBeforePresence(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 1)

	err := f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 5})

	assert.True(t, errors.Is(err, apperrors.ErrStockExceeded))
}

func TestUpdateProductAmount_SameAmountStillCommits(t *testing.T) {
	f := newFixture(t, item(sneaker, 2))
	f.catalog.Put(sneaker, 10)
	writes := f.storage.Writes()

	var snapshots []domain.Cart
	f.store.Subscribe(func(_ context.Context, _ notify.Operation, c domain.Cart) { snapshots = append(snapshots, c) })

	require.NoError(t, f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 2}))

	require.Len(t, snapshots, 1)
	assert.Equal(t, []domain.LineItem{item(sneaker, 2)}, snapshots[0].Items)
	assert.Equal(t, writes+1, f.storage.Writes())
}

func TestUpdateProductAmount_CatalogFailure(t *testing.T) {
	f := newFixture(t, item(sneaker, 2))
	f.catalog.FailStock(errors.New("timeout"))

	err := f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 3})

	assert.True(t, errors.Is(err, apperrors.ErrBadGateway))
	assert.Equal(t, 2, f.store.Cart().Items[0].Amount)
}

// ============================================================================
// Persistence Tests
// ============================================================================

func TestPersist_WriteFailureKeepsDirtyAndRetries(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)
	f.storage.FailWrites(errors.New("quota exceeded"))

	require.NoError(t, f.store.AddProduct(context.Background(), 1))
	assert.True(t, f.store.Dirty())
	assert.Len(t, f.store.Cart().Items, 1)

	assert.Error(t, f.store.Persist(context.Background()))
	assert.True(t, f.store.Dirty())

	f.storage.FailWrites(nil)
	require.NoError(t, f.store.Persist(context.Background()))
	assert.False(t, f.store.Dirty())
	assert.Equal(t, []domain.LineItem{item(sneaker, 1)}, f.persisted(t))
}

func TestPersist_BlobFormat(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)

	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	raw, _, err := f.storage.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"id":1,"title":"Tênis de Caminhada Leve Confortável","price":179.9,"image":"https://example.com/1.jpg","amount":1}]`,
		raw)
}

func TestPersist_EmptyCartIsEmptyArray(t *testing.T) {
	f := newFixture(t, item(sneaker, 1))
	require.NoError(t, f.store.RemoveProduct(context.Background(), 1))

	raw, _, err := f.storage.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

// ============================================================================
// Subscriber Tests
// ============================================================================

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)

	var got []domain.Cart
	unsubscribe := f.store.Subscribe(func(_ context.Context, _ notify.Operation, c domain.Cart) { got = append(got, c) })

	require.NoError(t, f.store.AddProduct(context.Background(), 1))
	require.NoError(t, f.store.AddProduct(context.Background(), 1))
	unsubscribe()
	unsubscribe()
	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Items[0].Amount)
	assert.Equal(t, 2, got[1].Items[0].Amount)
}

func TestSubscribe_ReceivesRequestContextAndOperation(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)

	var ids []string
	var ops []notify.Operation
	f.store.Subscribe(func(ctx context.Context, op notify.Operation, _ domain.Cart) {
		ids = append(ids, logger.RequestIDFromContext(ctx))
		ops = append(ops, op)
	})

	ctx := logger.WithRequestID(context.Background(), "req-7")
	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 3}))
	require.NoError(t, f.store.RemoveProduct(ctx, 1))

	assert.Equal(t, []string{"req-7", "req-7", "req-7"}, ids)
	assert.Equal(t, []notify.Operation{notify.OpAdd, notify.OpUpdate, notify.OpRemove}, ops)
}

func TestSubscribe_SnapshotsDoNotAliasState(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(sneaker, 5)

	f.store.Subscribe(func(_ context.Context, _ notify.Operation, c domain.Cart) { c.Items[0].Amount = 99 })
	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	assert.Equal(t, 1, f.store.Cart().Items[0].Amount)

	snap := f.store.Cart()
	snap.Items[0].Amount = 50
	assert.Equal(t, 1, f.store.Cart().Items[0].Amount)
}

func TestSubscribe_NotCalledOnFailure(t *testing.T) {
	f := newFixture(t)
	called := false
	f.store.Subscribe(func(context.Context, notify.Operation, domain.Cart) { called = true })

	_ = f.store.RemoveProduct(context.Background(), 1)
	assert.False(t, called)
}

func TestWithSubscriber_Option(t *testing.T) {
	cat := catalogmem.New()
	cat.Put(sneaker, 5)
	var calls int

	s, err := New(context.Background(), DefaultKey, cat, storagemem.NewStore(), logger.Discard(),
		WithSubscriber(func(context.Context, notify.Operation, domain.Cart) { calls++ }))
	require.NoError(t, err)
	assert.Equal(t, 0, calls)

	require.NoError(t, s.AddProduct(context.Background(), 1))
	assert.Equal(t, 1, calls)
}

// ============================================================================
// Invariants and concurrency
// ============================================================================

// slowCatalog delays every stock lookup so concurrent mutations overlap.
type slowCatalog struct {
	catalog.Service
	delay time.Duration
}

func (c slowCatalog) GetStock(ctx context.Context, id int) (domain.Stock, error) {
	time.Sleep(c.delay)
	return c.Service.GetStock(ctx, id)
}

func TestConcurrentAdds_NoLostUpdates(t *testing.T) {
	cat := catalogmem.New()
	cat.Put(sneaker, 100)
	cat.Put(runner, 100)
	st := storagemem.NewStore()

	s, err := New(context.Background(), DefaultKey, slowCatalog{Service: cat, delay: time.Millisecond}, st, logger.Discard())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AddProduct(context.Background(), 1))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AddProduct(context.Background(), 2))
		}()
	}
	wg.Wait()

	cart := s.Cart()
	assert.False(t, cart.HasDuplicates())
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 40, cart.Quantity())
}

func TestConcurrentAdds_NeverExceedStock(t *testing.T) {
	cat := catalogmem.New()
	cat.Put(sneaker, 3)

	s, err := New(context.Background(), DefaultKey, slowCatalog{Service: cat, delay: time.Millisecond}, storagemem.NewStore(), logger.Discard())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddProduct(context.Background(), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, s.Cart().Items[0].Amount)
}

func TestSnapshotDoesNotBlockOnCatalog(t *testing.T) {
	cat := catalogmem.New()
	cat.Put(sneaker, 5)
	s, err := New(context.Background(), DefaultKey, slowCatalog{Service: cat, delay: 200 * time.Millisecond}, storagemem.NewStore(), logger.Discard())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.AddProduct(context.Background(), 1)
	}()

	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	_ = s.Cart()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	<-done
}

// ============================================================================
// Metrics
// ============================================================================

func TestOperationsCounter(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("remove", outcomeNotFound))

	_ = f.store.RemoveProduct(context.Background(), 12345)

	after := testutil.ToFloat64(operationsTotal.WithLabelValues("remove", outcomeNotFound))
	assert.Equal(t, before+1, after)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, outcomeSuccess, outcomeOf(nil))
	assert.Equal(t, outcomeStockExceeded, outcomeOf(apperrors.StockExceeded(1, 2, 1)))
	assert.Equal(t, outcomeNotFound, outcomeOf(apperrors.NotFound("cart item", "1")))
	assert.Equal(t, outcomeCatalogError, outcomeOf(apperrors.BadGateway("catalog", apperrors.NotFound("product", "1"))))
	assert.Equal(t, "error", outcomeOf(errors.New("other")))
}
