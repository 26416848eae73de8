package application

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"shopbank/internal/pkg/money"
	"shopbank/internal/service/ledger/domain"
)

// memStore is a map-backed stand-in for the MySQL repositories. Within
// works on a copy and commits only on success, which is exactly the
// all-or-nothing behavior the real unit of work provides.
type memStore struct {
	accounts map[string]*domain.Account
	txs      []*domain.Transaction
	nextID   int64
}

func newMemStore(accounts ...*domain.Account) *memStore {
	s := &memStore{accounts: map[string]*domain.Account{}}
	for _, a := range accounts {
		s.nextID++
		a.ID = s.nextID
		s.accounts[a.Number] = a
	}
	return s
}

type memAccounts struct{ store *memStore }

func (r *memAccounts) FindByNumber(_ context.Context, number string) (*domain.Account, error) {
	a, ok := r.store.accounts[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memAccounts) FindByNumberForUpdate(ctx context.Context, number string) (*domain.Account, error) {
	return r.FindByNumber(ctx, number)
}

func (r *memAccounts) ExistsByNumber(_ context.Context, number string) (bool, error) {
	_, ok := r.store.accounts[number]
	return ok, nil
}

func (r *memAccounts) Save(_ context.Context, account *domain.Account) error {
	if account.ID == 0 {
		r.store.nextID++
		account.ID = r.store.nextID
	}
	copied := *account
	r.store.accounts[account.Number] = &copied
	return nil
}

func (r *memAccounts) List(_ context.Context) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

type memTxs struct{ store *memStore }

func (r *memTxs) Append(_ context.Context, tx *domain.Transaction) error {
	r.store.nextID++
	tx.ID = r.store.nextID
	r.store.txs = append(r.store.txs, tx)
	return nil
}

func (r *memTxs) HistoryFor(_ context.Context, number string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range r.store.txs {
		if tx.From == number || tx.To == number {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memTxs) Statement(ctx context.Context, number string, year, month int) ([]*domain.Transaction, error) {
	return r.HistoryFor(ctx, number)
}

type memUnitOfWork struct{ store *memStore }

func (u *memUnitOfWork) Within(ctx context.Context, fn func(domain.AccountRepository, domain.TransactionRepository) error) error {
	shadow := &memStore{accounts: map[string]*domain.Account{}, nextID: u.store.nextID}
	for n, a := range u.store.accounts {
		copied := *a
		shadow.accounts[n] = &copied
	}
	shadow.txs = append(shadow.txs, u.store.txs...)

	if err := fn(&memAccounts{store: shadow}, &memTxs{store: shadow}); err != nil {
		return err
	}
	*u.store = *shadow
	return nil
}

func newTestService(store *memStore, floor money.Amount) *Service {
	return NewService(
		&memUnitOfWork{store: store},
		&memAccounts{store: store},
		&memTxs{store: store},
		floor,
		otel.Tracer("test"),
	)
}

func account(number string, balance money.Amount) *domain.Account {
	return &domain.Account{Name: "holder " + number, Number: number, Balance: balance}
}

func TestTransferMovesFunds(t *testing.T) {
	store := newMemStore(account("1111", 50000), account("2222", 20000))
	svc := newTestService(store, 10000)

	tx, err := svc.Transfer(context.Background(), "1111", "2222", 15000)
	if err != nil {
		t.Fatal(err)
	}
	if tx.ID == 0 {
		t.Fatal("transaction was not assigned an id")
	}
	if tx.Amount != 15000 || tx.From != "1111" || tx.To != "2222" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if got := store.accounts["1111"].Balance; got != 35000 {
		t.Fatalf("source balance = %d, want 35000", got)
	}
	if got := store.accounts["2222"].Balance; got != 35000 {
		t.Fatalf("destination balance = %d, want 35000", got)
	}
	if len(store.txs) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(store.txs))
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	store := newMemStore(account("1111", 12000), account("2222", 20000))
	svc := newTestService(store, 10000)

	_, err := svc.Transfer(context.Background(), "1111", "2222", 13000)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	assertUntouched(t, store, 12000, 20000)
}

func TestTransferMinimumBalanceFloor(t *testing.T) {
	store := newMemStore(account("1111", 12000), account("2222", 20000))
	svc := newTestService(store, 10000)

	// The source can cover the amount but would land below the floor.
	_, err := svc.Transfer(context.Background(), "1111", "2222", 5000)
	if !errors.Is(err, domain.ErrMinimumBalance) {
		t.Fatalf("err = %v, want ErrMinimumBalance", err)
	}
	assertUntouched(t, store, 12000, 20000)

	// Landing exactly on the floor is allowed.
	if _, err := svc.Transfer(context.Background(), "1111", "2222", 2000); err != nil {
		t.Fatalf("transfer to exact floor failed: %v", err)
	}
	if got := store.accounts["1111"].Balance; got != 10000 {
		t.Fatalf("source balance = %d, want 10000", got)
	}
}

func TestTransferNegativeAmount(t *testing.T) {
	store := newMemStore(account("1111", 50000), account("2222", 20000))
	svc := newTestService(store, 10000)

	_, err := svc.Transfer(context.Background(), "1111", "2222", -1)
	if !errors.Is(err, domain.ErrNegativeAmount) {
		t.Fatalf("err = %v, want ErrNegativeAmount", err)
	}
	assertUntouched(t, store, 50000, 20000)
}

func TestTransferMissingAccountsReportSourceFirst(t *testing.T) {
	store := newMemStore(account("2222", 20000))
	svc := newTestService(store, 10000)

	_, err := svc.Transfer(context.Background(), "9999", "2222", 100)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
	if !strings.Contains(err.Error(), "from account 9999") {
		t.Fatalf("error %q does not name the source account", err)
	}

	_, err = svc.Transfer(context.Background(), "2222", "9999", 100)
	if !strings.Contains(err.Error(), "to account 9999") {
		t.Fatalf("error %q does not name the destination account", err)
	}

	// Both missing: the source is reported even when the destination
	// number sorts first.
	_, err = svc.Transfer(context.Background(), "9999", "0001", 100)
	if !strings.Contains(err.Error(), "from account 9999") {
		t.Fatalf("error %q should report the source first", err)
	}
}

func TestTransferZeroAmountIsRecorded(t *testing.T) {
	store := newMemStore(account("1111", 50000), account("2222", 20000))
	svc := newTestService(store, 10000)

	tx, err := svc.Transfer(context.Background(), "1111", "2222", 0)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Amount != 0 {
		t.Fatalf("amount = %d, want 0", tx.Amount)
	}
	if got := store.accounts["1111"].Balance; got != 50000 {
		t.Fatalf("source balance = %d, want 50000", got)
	}
	if got := store.accounts["2222"].Balance; got != 20000 {
		t.Fatalf("destination balance = %d, want 20000", got)
	}
	if len(store.txs) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(store.txs))
	}
}

func TestTransferToSelf(t *testing.T) {
	store := newMemStore(account("1111", 50000))
	svc := newTestService(store, 10000)

	if _, err := svc.Transfer(context.Background(), "1111", "1111", 5000); err != nil {
		t.Fatal(err)
	}
	if got := store.accounts["1111"].Balance; got != 50000 {
		t.Fatalf("balance changed on self-transfer: %d", got)
	}
	if len(store.txs) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(store.txs))
	}
}

func TestRegisterEnforcesOpeningFloor(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, 10000)

	_, err := svc.Register(context.Background(), &domain.Account{Name: "low", Balance: 9999})
	if !errors.Is(err, domain.ErrMinimumBalance) {
		t.Fatalf("err = %v, want ErrMinimumBalance", err)
	}

	opened, err := svc.Register(context.Background(), &domain.Account{Name: "ok", Balance: 10000})
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^\d{10}$`).MatchString(opened.Number) {
		t.Fatalf("account number %q is not 10 digits", opened.Number)
	}
	if opened.Number[0] == '0' {
		t.Fatalf("account number %q has a leading zero", opened.Number)
	}
}

func TestAccountByNumberWrapsNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, 10000)

	_, err := svc.AccountByNumber(context.Background(), "4242")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
	if !strings.Contains(err.Error(), "4242") {
		t.Fatalf("error %q does not name the account", err)
	}
}

func TestMonthlyStatementValidatesMonth(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, 10000)

	if _, err := svc.MonthlyStatement(context.Background(), "1111", 2026, 13); err == nil {
		t.Fatal("expected error for month 13")
	}
	if _, err := svc.MonthlyStatement(context.Background(), "1111", 2026, 0); err == nil {
		t.Fatal("expected error for month 0")
	}
}

func assertUntouched(t *testing.T, store *memStore, from, to money.Amount) {
	t.Helper()
	if got := store.accounts["1111"].Balance; got != from {
		t.Fatalf("source balance = %d, want %d", got, from)
	}
	if got := store.accounts["2222"].Balance; got != to {
		t.Fatalf("destination balance = %d, want %d", got, to)
	}
	if len(store.txs) != 0 {
		t.Fatalf("recorded %d transactions, want none", len(store.txs))
	}
}
