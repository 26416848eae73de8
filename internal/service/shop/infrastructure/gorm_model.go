package infrastructure

import "time"

type ProductModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"size:1024"`
	Price       int64  `gorm:"not null"`
	Stock       int    `gorm:"not null"`
}

func (ProductModel) TableName() string { return "products" }

type BuyerModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Name              string `gorm:"size:255;not null"`
	Email             string `gorm:"size:255;uniqueIndex"`
	BankAccountNumber string `gorm:"size:32;index"`
}

func (BuyerModel) TableName() string { return "buyers" }

type CartLineModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	BuyerID   int64 `gorm:"index;not null"`
	ProductID int64 `gorm:"index;not null"`
	Quantity  int   `gorm:"not null"`
	UnitPrice int64 `gorm:"not null"`
	CreatedAt time.Time
}

func (CartLineModel) TableName() string { return "cart_lines" }

type OrderModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	OrderNumber   string `gorm:"size:64;uniqueIndex;not null"`
	BuyerID       int64  `gorm:"index;not null"`
	Total         int64  `gorm:"not null"`
	Status        string `gorm:"size:32;not null"`
	PaymentRef    string `gorm:"size:64"`
	FailureReason string `gorm:"size:1024"`
	CreatedAt     time.Time
	Lines         []OrderLineModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string { return "orders" }

type OrderLineModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	OrderID   int64 `gorm:"index;not null"`
	ProductID int64 `gorm:"not null"`
	Quantity  int   `gorm:"not null"`
	UnitPrice int64 `gorm:"not null"`
}

func (OrderLineModel) TableName() string { return "order_lines" }
