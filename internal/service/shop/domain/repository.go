package domain

import (
	"context"
	"time"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
}

type BuyerRepository interface {
	FindByID(ctx context.Context, id int64) (*Buyer, error)
	Save(ctx context.Context, buyer *Buyer) error
}

// CartRepository keeps lines in insertion order.
type CartRepository interface {
	LinesFor(ctx context.Context, buyerID int64) ([]*CartLine, error)
	FindLine(ctx context.Context, lineID int64) (*CartLine, error)
	FindLineByProduct(ctx context.Context, buyerID, productID int64) (*CartLine, error)
	Save(ctx context.Context, line *CartLine) error
	Delete(ctx context.Context, lineID int64) error
	// Clear removes every line for the buyer; a no-op on an empty cart.
	Clear(ctx context.Context, buyerID int64) error
}

type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByBuyer(ctx context.Context, buyerID int64) ([]*Order, error)
	FindByBuyerBetween(ctx context.Context, buyerID int64, from, to time.Time) ([]*Order, error)
}
