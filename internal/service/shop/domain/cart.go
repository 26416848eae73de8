package domain

import (
	"time"

	"shopbank/internal/pkg/money"
)

// CartLine captures the unit price at add time so a price change on
// the product cannot drift the total mid-cart.
type CartLine struct {
	ID        int64
	BuyerID   int64
	ProductID int64
	Quantity  int
	UnitPrice money.Amount
	CreatedAt time.Time
}

func (l *CartLine) LineTotal() money.Amount {
	return l.UnitPrice.MulQty(l.Quantity)
}

// CartTotal sums line totals; zero for an empty cart.
func CartTotal(lines []*CartLine) money.Amount {
	var total money.Amount
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}
