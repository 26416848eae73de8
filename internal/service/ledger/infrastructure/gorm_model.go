package infrastructure

import "time"

// AccountModel maps the accounts table. Balance is stored in minor
// units as a plain integer so arithmetic in SQL stays exact.
type AccountModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"size:128"`
	Age           string `gorm:"size:8"`
	Email         string `gorm:"size:128"`
	Phone         string `gorm:"size:32"`
	AccountNumber string `gorm:"size:16;uniqueIndex"`
	Balance       int64
	CreatedAt     time.Time
}

func (AccountModel) TableName() string { return "accounts" }

// TransactionModel maps the append-only transactions table.
type TransactionModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	FromAccountNumber string `gorm:"size:16;index"`
	ToAccountNumber   string `gorm:"size:16;index"`
	Amount            int64
	Type              string `gorm:"size:16"`
	Description       string `gorm:"size:255"`
	TransactionDate   time.Time
}

func (TransactionModel) TableName() string { return "transactions" }
