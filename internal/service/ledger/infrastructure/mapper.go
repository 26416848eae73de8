package infrastructure

import (
	"shopbank/internal/pkg/money"
	"shopbank/internal/service/ledger/domain"
)

func ToDomainAccount(m *AccountModel) *domain.Account {
	return &domain.Account{
		ID:        m.ID,
		Name:      m.Name,
		Age:       m.Age,
		Email:     m.Email,
		Phone:     m.Phone,
		Number:    m.AccountNumber,
		Balance:   money.Amount(m.Balance),
		CreatedAt: m.CreatedAt,
	}
}

func ToAccountModel(a *domain.Account) *AccountModel {
	return &AccountModel{
		ID:            a.ID,
		Name:          a.Name,
		Age:           a.Age,
		Email:         a.Email,
		Phone:         a.Phone,
		AccountNumber: a.Number,
		Balance:       int64(a.Balance),
		CreatedAt:     a.CreatedAt,
	}
}

func ToDomainTransaction(m *TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:          m.ID,
		From:        m.FromAccountNumber,
		To:          m.ToAccountNumber,
		Amount:      money.Amount(m.Amount),
		Kind:        domain.Kind(m.Type),
		Description: m.Description,
		At:          m.TransactionDate,
	}
}

func ToTransactionModel(t *domain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:                t.ID,
		FromAccountNumber: t.From,
		ToAccountNumber:   t.To,
		Amount:            int64(t.Amount),
		Type:              string(t.Kind),
		Description:       t.Description,
		TransactionDate:   t.At,
	}
}
