// Package catalog defines the product and stock lookups the cart depends on.
package catalog

import (
	"context"

	"github.com/rocketshoes/cartstore/internal/domain"
)

// Service answers stock and product metadata queries by product ID.
type Service interface {
	GetStock(ctx context.Context, productID int) (domain.Stock, error)
	GetProduct(ctx context.Context, productID int) (domain.Product, error)
}
