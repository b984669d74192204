// Package memory is an in-process catalog for tests and the demo mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketshoes/cartstore/internal/domain"
	apperrors "github.com/rocketshoes/cartstore/pkg/errors"
)

// Catalog holds products and stock levels in maps. Failures can be injected
// per call kind, and every call is counted.
type Catalog struct {
	mu         sync.RWMutex
	products   map[int]domain.Product
	stock      map[int]int
	stockErr   error
	productErr error
	calls      map[string]int
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		products: make(map[int]domain.Product),
		stock:    make(map[int]int),
		calls:    make(map[string]int),
	}
}

// Put registers a product with the given stock level.
func (c *Catalog) Put(p domain.Product, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
	c.stock[p.ID] = stock
}

// SetStock changes the stock level for a product.
func (c *Catalog) SetStock(productID, amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[productID] = amount
}

// FailStock makes every GetStock call return err. Pass nil to clear.
func (c *Catalog) FailStock(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stockErr = err
}

// FailProduct makes every GetProduct call return err. Pass nil to clear.
func (c *Catalog) FailProduct(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.productErr = err
}

// Calls returns how many times the named method ("GetStock" or "GetProduct")
// was invoked.
func (c *Catalog) Calls(method string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[method]
}

func (c *Catalog) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["GetStock"]++

	if err := ctx.Err(); err != nil {
		return domain.Stock{}, err
	}
	if c.stockErr != nil {
		return domain.Stock{}, c.stockErr
	}
	amount, ok := c.stock[productID]
	if !ok {
		return domain.Stock{}, apperrors.NotFound("stock", fmt.Sprint(productID))
	}
	return domain.Stock{ID: productID, Amount: amount}, nil
}

func (c *Catalog) GetProduct(ctx context.Context, productID int) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["GetProduct"]++

	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if c.productErr != nil {
		return domain.Product{}, c.productErr
	}
	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", fmt.Sprint(productID))
	}
	return p, nil
}

// Seed returns a catalog stocked with the storefront's demo shoes.
func Seed() *Catalog {
	c := New()
	c.Put(domain.NewProduct(1, "Tênis de Caminhada Leve Confortável", 179.9,
		"https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg"), 3)
	c.Put(domain.NewProduct(2, "Tênis VR Caminhada Confortável Detalhes Couro Masculino", 139.9,
		"https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"), 5)
	c.Put(domain.NewProduct(3, "Tênis Adidas Duramo Lite 2.0", 219.9,
		"https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"), 2)
	c.Put(domain.NewProduct(5, "Tênis VR Caminhada Confortável Detalhes Couro Masculino", 139.9,
		"https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"), 5)
	c.Put(domain.NewProduct(6, "Tênis Adidas Duramo Lite 2.0", 219.9,
		"https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"), 10)
	return c
}
