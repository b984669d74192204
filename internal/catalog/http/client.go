package http

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rocketshoes/cartstore/internal/domain"
	"github.com/rocketshoes/cartstore/pkg/httpclient"
	"github.com/rocketshoes/cartstore/pkg/tracing"
)

const (
	serviceName = "catalog"
	tracerName  = "github.com/rocketshoes/cartstore/internal/catalog/http"
)

// Client reads stock and product documents from the storefront catalog API:
//
//	GET {base}/stock/{id}    -> {"id":1,"amount":3}
//	GET {base}/products/{id} -> {"id":1,"title":"...","price":179.9,"image":"..."}
type Client struct {
	doer    httpclient.Doer
	baseURL string
	tracer  trace.Tracer
}

// NewClient creates a catalog client. doer is normally a
// *httpclient.CircuitBreakerClient.
func NewClient(doer httpclient.Doer, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog url %q must be absolute", baseURL)
	}

	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracing.Tracer(tracerName),
	}, nil
}

// GetStock returns the available quantity for a product.
func (c *Client) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	var stock domain.Stock
	if err := c.get(ctx, "GetStock", "stock", productID, &stock); err != nil {
		return domain.Stock{}, fmt.Errorf("get stock %d: %w", productID, err)
	}
	return stock, nil
}

// GetProduct returns the metadata for a product.
func (c *Client) GetProduct(ctx context.Context, productID int) (domain.Product, error) {
	var product domain.Product
	if err := c.get(ctx, "GetProduct", "products", productID, &product); err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", productID, err)
	}
	return product, nil
}

func (c *Client) get(ctx context.Context, op, resource string, productID int, dst any) (err error) {
	endpoint := c.baseURL + "/" + resource + "/" + strconv.Itoa(productID)

	ctx, span := c.tracer.Start(ctx, "catalog."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("peer.service", serviceName),
			attribute.Int("product.id", productID),
			attribute.String("url.full", endpoint),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return httpclient.GetJSON(ctx, c.doer, endpoint, serviceName, dst)
}
