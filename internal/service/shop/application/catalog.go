package application

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"shopbank/internal/service/shop/domain"
)

// CatalogService is plain CRUD over products and buyers.
type CatalogService struct {
	products domain.ProductRepository
	buyers   domain.BuyerRepository
	tracer   trace.Tracer
}

func NewCatalogService(products domain.ProductRepository, buyers domain.BuyerRepository, tracer trace.Tracer) *CatalogService {
	return &CatalogService{products: products, buyers: buyers, tracer: tracer}
}

func (s *CatalogService) Products(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

func (s *CatalogService) Product(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "app.CreateProduct")
	defer span.End()
	return s.products.Save(ctx, product)
}

func (s *CatalogService) Buyer(ctx context.Context, id int64) (*domain.Buyer, error) {
	return s.buyers.FindByID(ctx, id)
}

func (s *CatalogService) CreateBuyer(ctx context.Context, buyer *domain.Buyer) error {
	ctx, span := s.tracer.Start(ctx, "app.CreateBuyer")
	defer span.End()
	return s.buyers.Save(ctx, buyer)
}
