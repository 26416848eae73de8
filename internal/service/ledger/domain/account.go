// Package domain holds the ledger aggregate: accounts, the append-only
// transaction log, and the persistence contracts the application layer
// depends on.
package domain

import (
	"errors"
	"time"

	"shopbank/internal/pkg/money"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientBalance: source balance below the transfer amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrMinimumBalance: the transfer (or opening balance) would leave
	// the account below the configured floor.
	ErrMinimumBalance = errors.New("minimum balance must be maintained")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// Account balances only change through the ledger's transfer
// operation; nothing else mutates them.
type Account struct {
	ID        int64
	Name      string
	Age       string
	Email     string
	Phone     string
	Number    string
	Balance   money.Amount
	CreatedAt time.Time
}
