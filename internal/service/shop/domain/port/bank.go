// Package port declares the outbound dependencies of the shop service.
// Adapters in infrastructure/adapter implement them.
package port

import (
	"context"

	"shopbank/internal/pkg/money"
)

// BankAccount is the subset of the ledger's account the shop cares
// about.
type BankAccount struct {
	Number  string       `json:"accountNumber"`
	Name    string       `json:"name"`
	Balance money.Amount `json:"balance"`
}

// BankTransaction is the ledger's record of a settled transfer,
// returned so the order can carry a payment reference.
type BankTransaction struct {
	ID     int64        `json:"id"`
	From   string       `json:"fromAccountNumber"`
	To     string       `json:"toAccountNumber"`
	Amount money.Amount `json:"amount"`
}

// BankService is the remote ledger. Transfer is synchronous and either
// fully settles or fully fails; the caller treats timeouts as failure.
type BankService interface {
	AccountByNumber(ctx context.Context, number string) (*BankAccount, error)
	Transfer(ctx context.Context, from, to string, amount money.Amount) (*BankTransaction, error)
}
