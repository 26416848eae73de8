package port

import "context"

// StockGuard performs atomic stock movements. Reserve returns false
// with a nil error when stock is simply short; an error means the
// store itself failed.
type StockGuard interface {
	Reserve(ctx context.Context, productID int64, qty int) (bool, error)
	Release(ctx context.Context, productID int64, qty int) error
}
