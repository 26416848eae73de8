// Package adapter implements the shop's outbound ports against the
// real infrastructure: the ledger over HTTP and Kafka for events.
package adapter

import (
	"context"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"shopbank/internal/pkg/constants"
	"shopbank/internal/pkg/httpclient"
	"shopbank/internal/pkg/money"
	"shopbank/internal/service/shop/domain/port"
)

// BankHTTPAdapter talks to the ledger service, resolved through Nacos
// per call so instances can come and go.
type BankHTTPAdapter struct {
	client *httpclient.Client
}

func NewBankHTTPAdapter(client *httpclient.Client) *BankHTTPAdapter {
	return &BankHTTPAdapter{client: client}
}

var _ port.BankService = (*BankHTTPAdapter)(nil)

func (a *BankHTTPAdapter) AccountByNumber(ctx context.Context, number string) (*port.BankAccount, error) {
	url, err := a.client.ServiceURL(constants.BankService, constants.BankAccountsPath+"/"+number)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "resolve bank service")
	}
	var account port.BankAccount
	if err := a.client.GetJSON(ctx, url, &account); err != nil {
		var statusErr *httpclient.StatusError
		if pkgerrors.As(err, &statusErr) {
			return nil, fmt.Errorf("bank rejected lookup: %s", statusErr.Message)
		}
		return nil, pkgerrors.Wrap(err, "bank account lookup")
	}
	return &account, nil
}

type transferRequest struct {
	FromAccountNumber string       `json:"fromAccountNumber"`
	ToAccountNumber   string       `json:"toAccountNumber"`
	Amount            money.Amount `json:"amount"`
}

func (a *BankHTTPAdapter) Transfer(ctx context.Context, from, to string, amount money.Amount) (*port.BankTransaction, error) {
	url, err := a.client.ServiceURL(constants.BankService, constants.BankTransfersPath)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "resolve bank service")
	}
	req := transferRequest{FromAccountNumber: from, ToAccountNumber: to, Amount: amount}
	var tx port.BankTransaction
	if err := a.client.PostJSON(ctx, url, req, &tx); err != nil {
		var statusErr *httpclient.StatusError
		if pkgerrors.As(err, &statusErr) {
			// Surface the ledger's reason, e.g. insufficient balance
			// or the minimum balance floor.
			return nil, fmt.Errorf("bank rejected transfer: %s", statusErr.Message)
		}
		return nil, pkgerrors.Wrap(err, "bank transfer")
	}
	return &tx, nil
}
