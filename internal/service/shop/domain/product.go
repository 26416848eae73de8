// Package domain models the shop side: products, cart lines, buyers,
// and the order aggregate with its checkout state machine.
package domain

import (
	"errors"

	"shopbank/internal/pkg/money"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrBuyerNotFound     = errors.New("buyer not found")
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Product stock is only mutated through the stock guard's
// reserve/release operations, never assigned directly.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       money.Amount
	Stock       int
}
