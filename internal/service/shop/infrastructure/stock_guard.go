package infrastructure

import (
	"context"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"shopbank/internal/zookeeper"
)

// GormStockGuard moves stock with single conditional UPDATEs, so a
// reservation can never drive stock negative even under concurrent
// checkouts. With a zookeeper connection it additionally serializes
// per product across service instances.
type GormStockGuard struct {
	db *gorm.DB
	zk *zookeeper.Conn
}

func NewGormStockGuard(db *gorm.DB, zkConn *zookeeper.Conn) *GormStockGuard {
	return &GormStockGuard{db: db, zk: zkConn}
}

func (g *GormStockGuard) Reserve(ctx context.Context, productID int64, qty int) (bool, error) {
	unlock, err := g.lockProduct(productID)
	if err != nil {
		return false, err
	}
	defer unlock()

	res := g.db.WithContext(ctx).Model(&ProductModel{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, pkgerrors.Wrap(res.Error, "reserve stock")
	}
	return res.RowsAffected == 1, nil
}

func (g *GormStockGuard) Release(ctx context.Context, productID int64, qty int) error {
	unlock, err := g.lockProduct(productID)
	if err != nil {
		return err
	}
	defer unlock()

	res := g.db.WithContext(ctx).Model(&ProductModel{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Errorf("release stock: product %d not found", productID)
	}
	return nil
}

// lockProduct takes the cross-instance lock when zookeeper is wired,
// otherwise it is a no-op; the conditional UPDATE is still safe alone.
func (g *GormStockGuard) lockProduct(productID int64) (func(), error) {
	if g.zk == nil {
		return func() {}, nil
	}
	lock, err := zookeeper.NewDistributedLock(g.zk, fmt.Sprintf("product-%d", productID))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create stock lock")
	}
	if err := lock.Lock(); err != nil {
		return nil, pkgerrors.Wrap(err, "acquire stock lock")
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Error().Err(err).Int64("product_id", productID).Msg("releasing stock lock")
		}
	}, nil
}
