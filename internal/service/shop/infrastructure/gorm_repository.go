package infrastructure

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"shopbank/internal/service/shop/domain"
)

// GormProductRepository implements domain.ProductRepository.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query product")
	}
	return toDomainProduct(&model), nil
}

func (r *GormProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, toDomainProduct(&models[i]))
	}
	return out, nil
}

func (r *GormProductRepository) Save(ctx context.Context, product *domain.Product) error {
	model := toProductModel(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return pkgerrors.Wrap(err, "save product")
	}
	product.ID = model.ID
	return nil
}

// GormBuyerRepository implements domain.BuyerRepository.
type GormBuyerRepository struct {
	db *gorm.DB
}

func NewGormBuyerRepository(db *gorm.DB) *GormBuyerRepository {
	return &GormBuyerRepository{db: db}
}

func (r *GormBuyerRepository) FindByID(ctx context.Context, id int64) (*domain.Buyer, error) {
	var model BuyerModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBuyerNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query buyer")
	}
	return toDomainBuyer(&model), nil
}

func (r *GormBuyerRepository) Save(ctx context.Context, buyer *domain.Buyer) error {
	model := toBuyerModel(buyer)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return pkgerrors.Wrap(err, "save buyer")
	}
	buyer.ID = model.ID
	return nil
}

// GormCartRepository implements domain.CartRepository. Lines come back
// ordered by id, which matches insertion order.
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) LinesFor(ctx context.Context, buyerID int64) ([]*domain.CartLine, error) {
	var models []CartLineModel
	err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("id").Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list cart lines")
	}
	out := make([]*domain.CartLine, 0, len(models))
	for i := range models {
		out = append(out, toDomainCartLine(&models[i]))
	}
	return out, nil
}

func (r *GormCartRepository) FindLine(ctx context.Context, lineID int64) (*domain.CartLine, error) {
	var model CartLineModel
	err := r.db.WithContext(ctx).First(&model, lineID).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartLineNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query cart line")
	}
	return toDomainCartLine(&model), nil
}

func (r *GormCartRepository) FindLineByProduct(ctx context.Context, buyerID, productID int64) (*domain.CartLine, error) {
	var model CartLineModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		First(&model).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartLineNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query cart line by product")
	}
	return toDomainCartLine(&model), nil
}

func (r *GormCartRepository) Save(ctx context.Context, line *domain.CartLine) error {
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now()
	}
	model := toCartLineModel(line)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return pkgerrors.Wrap(err, "save cart line")
	}
	line.ID = model.ID
	return nil
}

func (r *GormCartRepository) Delete(ctx context.Context, lineID int64) error {
	if err := r.db.WithContext(ctx).Delete(&CartLineModel{}, lineID).Error; err != nil {
		return pkgerrors.Wrap(err, "delete cart line")
	}
	return nil
}

func (r *GormCartRepository) Clear(ctx context.Context, buyerID int64) error {
	err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Delete(&CartLineModel{}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "clear cart")
	}
	return nil
}

// GormOrderRepository implements domain.OrderRepository.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

const mysqlDuplicateEntry = 1062

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	model := toOrderModel(order)
	err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(model).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if pkgerrors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return pkgerrors.Wrapf(err, "order number collision for %s", order.Number)
		}
		return pkgerrors.Wrap(err, "save order")
	}
	order.ID = model.ID
	return nil
}

func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Lines").Where("order_number = ?", number).First(&model).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query order")
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyerID int64) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Preload("Lines").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list orders")
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) FindByBuyerBetween(ctx context.Context, buyerID int64, from, to time.Time) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Preload("Lines").
		Where("buyer_id = ? AND created_at >= ? AND created_at < ?", buyerID, from, to).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list orders in range")
	}
	return toDomainOrders(models), nil
}

func toDomainOrders(models []OrderModel) []*domain.Order {
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, toDomainOrder(&models[i]))
	}
	return out
}
