// Package storage defines the key/value surface carts are persisted to.
package storage

import "context"

// Store reads and writes opaque string values by key. Get reports
// found=false for an absent key rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}
