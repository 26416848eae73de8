package application

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"

	"shopbank/internal/service/shop/domain"
)

func newCartService() (*CartService, *fakeCarts, *fakeProducts) {
	carts := &fakeCarts{}
	products := &fakeProducts{products: map[int64]*domain.Product{
		10: {ID: 10, Name: "widget", Price: 2999, Stock: 5},
	}}
	buyers := &fakeBuyers{buyers: map[int64]*domain.Buyer{
		1: {ID: 1, Name: "alice"},
	}}
	return NewCartService(carts, products, buyers, otel.Tracer("test")), carts, products
}

func TestCartAddCapturesPriceAtAddTime(t *testing.T) {
	svc, _, products := newCartService()

	line, err := svc.Add(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if line.UnitPrice != 2999 || line.Quantity != 2 {
		t.Fatalf("unexpected line %+v", line)
	}

	// A price change after the line exists must not move the captured
	// unit price, even when the line is merged into.
	products.products[10].Price = 9999
	merged, err := svc.Add(context.Background(), 1, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if merged.ID != line.ID {
		t.Fatalf("expected merge into line %d, got new line %d", line.ID, merged.ID)
	}
	if merged.Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", merged.Quantity)
	}
	if merged.UnitPrice != 2999 {
		t.Fatalf("unit price drifted to %d", merged.UnitPrice)
	}

	total, err := svc.Total(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if total != 8997 {
		t.Fatalf("total = %d, want 8997", total)
	}
}

func TestCartAddValidates(t *testing.T) {
	svc, _, _ := newCartService()

	if _, err := svc.Add(context.Background(), 1, 10, 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("err = %v, want ErrInvalidQuantity", err)
	}
	if _, err := svc.Add(context.Background(), 1, 10, 6); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if _, err := svc.Add(context.Background(), 1, 99, 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
	if _, err := svc.Add(context.Background(), 42, 10, 1); !errors.Is(err, domain.ErrBuyerNotFound) {
		t.Fatalf("err = %v, want ErrBuyerNotFound", err)
	}
}

func TestCartAddMergeRespectsStock(t *testing.T) {
	svc, _, _ := newCartService()

	if _, err := svc.Add(context.Background(), 1, 10, 3); err != nil {
		t.Fatal(err)
	}
	// 3 already in the cart, 3 more would exceed the 5 in stock.
	if _, err := svc.Add(context.Background(), 1, 10, 3); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestCartUpdateQuantity(t *testing.T) {
	svc, _, _ := newCartService()

	line, err := svc.Add(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	updated, err := svc.UpdateQuantity(context.Background(), 1, line.ID, 4)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", updated.Quantity)
	}
	if _, err := svc.UpdateQuantity(context.Background(), 1, line.ID, 6); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if _, err := svc.UpdateQuantity(context.Background(), 1, line.ID, 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("err = %v, want ErrInvalidQuantity", err)
	}
}

func TestCartRemoveChecksOwnership(t *testing.T) {
	svc, carts, _ := newCartService()

	line, err := svc.Add(context.Background(), 1, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Another buyer cannot remove this line.
	if err := svc.Remove(context.Background(), 2, line.ID); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Fatalf("err = %v, want ErrCartLineNotFound", err)
	}
	if err := svc.Remove(context.Background(), 1, line.ID); err != nil {
		t.Fatal(err)
	}
	if len(carts.lines) != 0 {
		t.Fatalf("line not removed: %v", carts.lines)
	}
}
