package cartstore

import (
	"context"

	"github.com/rocketshoes/cartstore/internal/notify"
)

// Actions is the UI-facing side of a Store. Each action either changes the
// cart or leaves it unchanged and delivers a notification; errors are never
// returned to the caller.
type Actions struct {
	store    *Store
	notifier notify.Notifier
}

// NewActions wraps store, delivering failure notifications to notifier.
func NewActions(store *Store, notifier notify.Notifier) *Actions {
	return &Actions{store: store, notifier: notifier}
}

// Store returns the wrapped store.
func (a *Actions) Store() *Store {
	return a.store
}

// AddProduct adds one unit of a product. It returns the delivered
// notification, or nil when the cart changed.
func (a *Actions) AddProduct(ctx context.Context, productID int) *notify.Notification {
	return a.report(ctx, notify.OpAdd, productID, a.store.AddProduct(ctx, productID))
}

// RemoveProduct removes a product's line item.
func (a *Actions) RemoveProduct(ctx context.Context, productID int) *notify.Notification {
	return a.report(ctx, notify.OpRemove, productID, a.store.RemoveProduct(ctx, productID))
}

// UpdateProductAmount sets a line item's amount. Non-positive amounts are a
// silent no-op.
func (a *Actions) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) *notify.Notification {
	return a.report(ctx, notify.OpUpdate, req.ProductID, a.store.UpdateProductAmount(ctx, req))
}

func (a *Actions) report(ctx context.Context, op notify.Operation, productID int, err error) *notify.Notification {
	if err == nil {
		return nil
	}
	n := notify.For(op, productID, err)
	a.notifier.Notify(ctx, n)
	return &n
}
