package cartstore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/rocketshoes/cartstore/pkg/errors"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartstore_operations_total",
			Help: "Cart operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	catalogDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cartstore_catalog_duration_seconds",
			Help:    "Latency of catalog lookups made by cart operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call"},
	)

	persistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cartstore_persist_failures_total",
			Help: "Cart writes to the persistent store that failed",
		},
	)
)

// Outcome label values.
const (
	outcomeSuccess       = "success"
	outcomeNoop          = "noop"
	outcomeStockExceeded = "stock_exceeded"
	outcomeNotFound      = "not_found"
	outcomeCatalogError  = "catalog_error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, apperrors.ErrStockExceeded):
		return outcomeStockExceeded
	case errors.Is(err, apperrors.ErrBadGateway):
		return outcomeCatalogError
	case errors.Is(err, apperrors.ErrNotFound):
		return outcomeNotFound
	default:
		return "error"
	}
}
