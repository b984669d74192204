// Package notify turns failed cart operations into user-facing notifications.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	apperrors "github.com/rocketshoes/cartstore/pkg/errors"
)

// Kind classifies a notification.
type Kind string

const (
	KindStockExceeded Kind = "stock_exceeded"
	KindAddFailed     Kind = "add_failed"
	KindRemoveFailed  Kind = "remove_failed"
	KindUpdateFailed  Kind = "update_failed"
)

// Operation names a mutating cart operation.
type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpUpdate Operation = "update"
)

var messages = map[Kind]string{
	KindStockExceeded: "Requested quantity is out of stock",
	KindAddFailed:     "Failed to add product",
	KindRemoveFailed:  "Failed to remove product",
	KindUpdateFailed:  "Failed to update product quantity",
}

var genericKinds = map[Operation]Kind{
	OpAdd:    KindAddFailed,
	OpRemove: KindRemoveFailed,
	OpUpdate: KindUpdateFailed,
}

// Message returns the default user-facing text for a kind.
func Message(k Kind) string {
	return messages[k]
}

// Notification is what the shopper sees after a rejected operation.
type Notification struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	ProductID int    `json:"product_id"`

	// Err is the underlying cause. It is never shown to the shopper.
	Err error `json:"-"`
}

// For translates the error of a failed operation into a notification.
// Stock violations get their own kind; every other failure maps to the
// operation's generic kind.
func For(op Operation, productID int, err error) Notification {
	kind := genericKinds[op]
	if errors.Is(err, apperrors.ErrStockExceeded) {
		kind = KindStockExceeded
	}
	return Notification{
		Kind:      kind,
		Message:   messages[kind],
		ProductID: productID,
		Err:       err,
	}
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes each notification as a warning log line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs through logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	attrs := []any{
		slog.String("kind", string(n.Kind)),
		slog.Int("product_id", n.ProductID),
	}
	if n.Err != nil {
		attrs = append(attrs, slog.String("error", n.Err.Error()))
	}
	l.logger.WarnContext(ctx, n.Message, attrs...)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Kinds returns the kinds of the recorded notifications in arrival order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.items))
	for i, n := range r.items {
		out[i] = n.Kind
	}
	return out
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
