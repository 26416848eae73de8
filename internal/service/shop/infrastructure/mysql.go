package infrastructure

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Open connects to MySQL and migrates the shop schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ProductModel{}, &BuyerModel{}, &CartLineModel{}, &OrderModel{}, &OrderLineModel{}); err != nil {
		return nil, err
	}
	return db, nil
}
