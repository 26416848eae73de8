package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shopbank/internal/pkg/money"
	"shopbank/internal/service/shop/domain"
)

// CartService manages the buyer's cart. Stock is checked at add time
// as a courtesy; the authoritative check happens at checkout.
type CartService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
	buyers   domain.BuyerRepository
	tracer   trace.Tracer
}

func NewCartService(carts domain.CartRepository, products domain.ProductRepository, buyers domain.BuyerRepository, tracer trace.Tracer) *CartService {
	return &CartService{carts: carts, products: products, buyers: buyers, tracer: tracer}
}

// Add puts qty of a product in the buyer's cart, merging into an
// existing line for the same product. The merged line keeps its
// original add-time unit price.
func (s *CartService) Add(ctx context.Context, buyerID, productID int64, qty int) (*domain.CartLine, error) {
	ctx, span := s.tracer.Start(ctx, "app.CartAdd")
	defer span.End()
	span.SetAttributes(attribute.Int64("buyer.id", buyerID), attribute.Int64("product.id", productID))

	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, err := s.buyers.FindByID(ctx, buyerID); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.FindLineByProduct(ctx, buyerID, productID)
	if err != nil && !errors.Is(err, domain.ErrCartLineNotFound) {
		return nil, err
	}
	if line == nil {
		line = &domain.CartLine{
			BuyerID:   buyerID,
			ProductID: productID,
			UnitPrice: product.Price,
			CreatedAt: time.Now(),
		}
	}

	wanted := line.Quantity + qty
	if wanted > product.Stock {
		return nil, fmt.Errorf("%w: %d in stock, %d wanted", domain.ErrInsufficientStock, product.Stock, wanted)
	}
	line.Quantity = wanted
	if err := s.carts.Save(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateQuantity sets the exact quantity of an existing line.
func (s *CartService) UpdateQuantity(ctx context.Context, buyerID, lineID int64, qty int) (*domain.CartLine, error) {
	ctx, span := s.tracer.Start(ctx, "app.CartUpdateQuantity")
	defer span.End()

	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	line, err := s.lineOwnedBy(ctx, buyerID, lineID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, fmt.Errorf("%w: %d in stock, %d wanted", domain.ErrInsufficientStock, product.Stock, qty)
	}
	line.Quantity = qty
	if err := s.carts.Save(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// Remove drops one line from the cart.
func (s *CartService) Remove(ctx context.Context, buyerID, lineID int64) error {
	ctx, span := s.tracer.Start(ctx, "app.CartRemove")
	defer span.End()

	line, err := s.lineOwnedBy(ctx, buyerID, lineID)
	if err != nil {
		return err
	}
	return s.carts.Delete(ctx, line.ID)
}

// Clear empties the buyer's cart.
func (s *CartService) Clear(ctx context.Context, buyerID int64) error {
	ctx, span := s.tracer.Start(ctx, "app.CartClear")
	defer span.End()
	return s.carts.Clear(ctx, buyerID)
}

// Lines returns the cart in insertion order.
func (s *CartService) Lines(ctx context.Context, buyerID int64) ([]*domain.CartLine, error) {
	return s.carts.LinesFor(ctx, buyerID)
}

// Total is the sum of line totals at their captured unit prices.
func (s *CartService) Total(ctx context.Context, buyerID int64) (money.Amount, error) {
	lines, err := s.carts.LinesFor(ctx, buyerID)
	if err != nil {
		return 0, err
	}
	return domain.CartTotal(lines), nil
}

func (s *CartService) lineOwnedBy(ctx context.Context, buyerID, lineID int64) (*domain.CartLine, error) {
	line, err := s.carts.FindLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.BuyerID != buyerID {
		return nil, domain.ErrCartLineNotFound
	}
	return line, nil
}
