package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketshoes/cartstore/internal/domain"
	"github.com/rocketshoes/cartstore/internal/notify"
	pkgkafka "github.com/rocketshoes/cartstore/pkg/kafka"
	"github.com/rocketshoes/cartstore/pkg/logger"
)

// Aggregate type and source identifiers for cart events.
const (
	AggregateTypeCart = "cart"
	SourceCartStore   = "cartstore"
)

// TopicCartUpdated carries a full cart snapshot after every committed change.
var TopicCartUpdated = pkgkafka.Topic("cart", "updated")

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string            `json:"session_id"`
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Quantity  int               `json:"quantity"`
	Subtotal  float64           `json:"subtotal"`
}

// Publisher publishes cart change events.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, sessionID string, op notify.Operation, cart domain.Cart) error
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for cart events.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event keyed by session ID. The
// request ID carried by ctx, if any, is copied onto the event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, op notify.Operation, cart domain.Cart) error {
	data := CartUpdatedData{
		SessionID: sessionID,
		Items:     cart.Clone().Items,
		ItemCount: cart.ItemCount(),
		Quantity:  cart.Quantity(),
		Subtotal:  cart.Subtotal(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, sessionID, AggregateTypeCart, SourceCartStore, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}
	event.WithRequestID(logger.RequestIDFromContext(ctx)).WithMetadata("operation", string(op))

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("item_count", data.ItemCount),
	)

	return nil
}

// NoopPublisher discards every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishCartUpdated(context.Context, string, notify.Operation, domain.Cart) error {
	return nil
}

// Dispatcher publishes cart changes in the background so that a slow broker
// never delays a cart mutation. Failures are logged and dropped.
type Dispatcher struct {
	pub     Publisher
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher giving each publication timeout to finish.
func NewDispatcher(pub Publisher, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{pub: pub, timeout: timeout, logger: logger}
}

// CartChanged queues a cart.updated event. Its signature matches session.Hook.
// The publication keeps the values of ctx but not its cancellation.
func (d *Dispatcher) CartChanged(ctx context.Context, sessionID string, op notify.Operation, cart domain.Cart) {
	base := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()

		if err := d.pub.PublishCartUpdated(ctx, sessionID, op, cart); err != nil {
			d.logger.WarnContext(ctx, "cart event dropped",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Wait blocks until every queued publication has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
