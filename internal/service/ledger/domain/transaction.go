package domain

import (
	"fmt"
	"time"

	"shopbank/internal/pkg/money"
)

type Kind string

const (
	KindCredit   Kind = "CREDIT"
	KindDebit    Kind = "DEBIT"
	KindTransfer Kind = "TRANSFER"
)

// Transaction is an append-only audit record. Exactly one is written
// per successful transfer; none is ever updated or deleted.
type Transaction struct {
	ID          int64
	From        string
	To          string
	Amount      money.Amount
	Kind        Kind
	Description string
	At          time.Time
}

// NewTransfer builds the record for a completed transfer.
func NewTransfer(from, to string, amount money.Amount) *Transaction {
	return &Transaction{
		From:        from,
		To:          to,
		Amount:      amount,
		Kind:        KindTransfer,
		Description: fmt.Sprintf("Fund transfer from %s to %s", from, to),
		At:          time.Now(),
	}
}
