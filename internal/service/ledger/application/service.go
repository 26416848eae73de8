// Package application implements the ledger operations: fund transfer,
// account registration, lookups and statements.
package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shopbank/internal/pkg/logger"
	"shopbank/internal/pkg/money"
	"shopbank/internal/service/ledger/domain"
)

var transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bank_transfers_total",
	Help: "Fund transfers by outcome.",
}, []string{"outcome"})

type Service struct {
	uow        domain.UnitOfWork
	accounts   domain.AccountRepository
	txs        domain.TransactionRepository
	minBalance money.Amount
	tracer     trace.Tracer
}

func NewService(uow domain.UnitOfWork, accounts domain.AccountRepository, txs domain.TransactionRepository, minBalance money.Amount, tracer trace.Tracer) *Service {
	return &Service{
		uow:        uow,
		accounts:   accounts,
		txs:        txs,
		minBalance: minBalance,
		tracer:     tracer,
	}
}

// Transfer moves amount between two accounts, or fails with no partial
// effect. Preconditions run in a fixed order, failing fast: source
// exists, destination exists, source covers the amount, and the source
// stays at or above the minimum-balance floor afterwards. Zero-amount
// transfers are permitted and still recorded; a self-transfer succeeds
// with a single save since the debit and credit cancel out.
func (s *Service) Transfer(ctx context.Context, from, to string, amount money.Amount) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("transfer.from", from),
		attribute.String("transfer.to", to),
		attribute.String("transfer.amount", amount.String()),
	)

	if amount < 0 {
		transfersTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrNegativeAmount
	}

	var record *domain.Transaction
	err := s.uow.Within(ctx, func(accounts domain.AccountRepository, txs domain.TransactionRepository) error {
		source, dest, err := lockPair(ctx, accounts, from, to)
		if err != nil {
			return err
		}

		if source.Balance < amount {
			return domain.ErrInsufficientBalance
		}
		if source.Balance-amount < s.minBalance {
			return fmt.Errorf("cannot transfer: %w (floor %s)", domain.ErrMinimumBalance, s.minBalance.String())
		}

		source.Balance -= amount
		dest.Balance += amount
		if err := accounts.Save(ctx, source); err != nil {
			return err
		}
		if source != dest {
			if err := accounts.Save(ctx, dest); err != nil {
				return err
			}
		}

		record = domain.NewTransfer(from, to, amount)
		return txs.Append(ctx, record)
	})
	if err != nil {
		transfersTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transfer failed")
		return nil, err
	}

	transfersTotal.WithLabelValues("ok").Inc()
	logger.Ctx(ctx).Info().
		Str("from", from).Str("to", to).Str("amount", amount.String()).
		Int64("transaction_id", record.ID).
		Msg("transfer completed")
	return record, nil
}

// lockPair loads both accounts with row locks, always locking in
// account-number order so two opposing transfers cannot deadlock. The
// not-found checks still report in source-then-destination order.
func lockPair(ctx context.Context, accounts domain.AccountRepository, from, to string) (source, dest *domain.Account, err error) {
	if from == to {
		a, err := accounts.FindByNumberForUpdate(ctx, from)
		if err != nil {
			return nil, nil, wrapLookup("from", from, err)
		}
		return a, a, nil
	}

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	byNumber := map[string]*domain.Account{}
	missing := map[string]bool{}
	for _, n := range []string{first, second} {
		a, err := accounts.FindByNumberForUpdate(ctx, n)
		if errors.Is(err, domain.ErrAccountNotFound) {
			missing[n] = true
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		byNumber[n] = a
	}
	if missing[from] {
		return nil, nil, wrapLookup("from", from, domain.ErrAccountNotFound)
	}
	if missing[to] {
		return nil, nil, wrapLookup("to", to, domain.ErrAccountNotFound)
	}
	return byNumber[from], byNumber[to], nil
}

func wrapLookup(role, number string, err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("%s account %s: %w", role, number, domain.ErrAccountNotFound)
	}
	return err
}

// Register opens an account. The opening balance must meet the same
// floor transfers enforce; the account number is a random unique
// 10-digit string.
func (s *Service) Register(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Register")
	defer span.End()

	if account.Balance < s.minBalance {
		return nil, fmt.Errorf("minimum balance should be %s: %w", s.minBalance.String(), domain.ErrMinimumBalance)
	}

	number, err := s.uniqueAccountNumber(ctx)
	if err != nil {
		return nil, err
	}
	account.Number = number

	if err := s.accounts.Save(ctx, account); err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("account", account.Number).Msg("account registered")
	return account, nil
}

func (s *Service) uniqueAccountNumber(ctx context.Context) (string, error) {
	for {
		number := fmt.Sprintf("%d", 1000000000+rand.Int63n(9000000000))
		exists, err := s.accounts.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
}

func (s *Service) AccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	account, err := s.accounts.FindByNumber(ctx, number)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("account %s: %w", number, domain.ErrAccountNotFound)
	}
	return account, err
}

func (s *Service) Accounts(ctx context.Context) ([]*domain.Account, error) {
	return s.accounts.List(ctx)
}

func (s *Service) History(ctx context.Context, number string) ([]*domain.Transaction, error) {
	return s.txs.HistoryFor(ctx, number)
}

func (s *Service) MonthlyStatement(ctx context.Context, number string, year, month int) ([]*domain.Transaction, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month %d out of range", month)
	}
	return s.txs.Statement(ctx, number, year, month)
}
