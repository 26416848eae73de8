package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"shopbank/internal/pkg/money"
	"shopbank/internal/service/shop/domain"
	"shopbank/internal/service/shop/domain/port"
)

const (
	testMerchant = "1349885778"
	testTimeout  = time.Second
)

type fakeBuyers struct {
	buyers map[int64]*domain.Buyer
	saved  []*domain.Buyer
}

func (f *fakeBuyers) FindByID(_ context.Context, id int64) (*domain.Buyer, error) {
	b, ok := f.buyers[id]
	if !ok {
		return nil, domain.ErrBuyerNotFound
	}
	return b, nil
}

func (f *fakeBuyers) Save(_ context.Context, buyer *domain.Buyer) error {
	f.buyers[buyer.ID] = buyer
	f.saved = append(f.saved, buyer)
	return nil
}

type fakeProducts struct {
	products map[int64]*domain.Product
}

func (f *fakeProducts) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProducts) List(_ context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) Save(_ context.Context, p *domain.Product) error {
	if p.ID == 0 {
		p.ID = int64(len(f.products) + 1)
	}
	f.products[p.ID] = p
	return nil
}

type fakeCarts struct {
	lines   []*domain.CartLine
	nextID  int64
	cleared []int64
}

func (f *fakeCarts) LinesFor(_ context.Context, buyerID int64) ([]*domain.CartLine, error) {
	var out []*domain.CartLine
	for _, l := range f.lines {
		if l.BuyerID == buyerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeCarts) FindLine(_ context.Context, lineID int64) (*domain.CartLine, error) {
	for _, l := range f.lines {
		if l.ID == lineID {
			return l, nil
		}
	}
	return nil, domain.ErrCartLineNotFound
}

func (f *fakeCarts) FindLineByProduct(_ context.Context, buyerID, productID int64) (*domain.CartLine, error) {
	for _, l := range f.lines {
		if l.BuyerID == buyerID && l.ProductID == productID {
			return l, nil
		}
	}
	return nil, domain.ErrCartLineNotFound
}

func (f *fakeCarts) Save(_ context.Context, line *domain.CartLine) error {
	if line.ID == 0 {
		f.nextID++
		line.ID = f.nextID
		f.lines = append(f.lines, line)
	}
	return nil
}

func (f *fakeCarts) Delete(_ context.Context, lineID int64) error {
	for i, l := range f.lines {
		if l.ID == lineID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, buyerID int64) error {
	f.cleared = append(f.cleared, buyerID)
	var kept []*domain.CartLine
	for _, l := range f.lines {
		if l.BuyerID != buyerID {
			kept = append(kept, l)
		}
	}
	f.lines = kept
	return nil
}

type fakeOrders struct {
	byNumber map[string]*domain.Order
}

func (f *fakeOrders) Save(_ context.Context, order *domain.Order) error {
	if order.ID == 0 {
		order.ID = int64(len(f.byNumber) + 1)
	}
	f.byNumber[order.Number] = order
	return nil
}

func (f *fakeOrders) FindByNumber(_ context.Context, number string) (*domain.Order, error) {
	o, ok := f.byNumber[number]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) FindByBuyer(_ context.Context, buyerID int64) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range f.byNumber {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) FindByBuyerBetween(ctx context.Context, buyerID int64, from, to time.Time) ([]*domain.Order, error) {
	orders, _ := f.FindByBuyer(ctx, buyerID)
	var out []*domain.Order
	for _, o := range orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

type stockMove struct {
	productID int64
	qty       int
}

type fakeStock struct {
	stock    map[int64]int
	reserved []stockMove
	released []stockMove
}

func (f *fakeStock) Reserve(_ context.Context, productID int64, qty int) (bool, error) {
	if f.stock[productID] < qty {
		return false, nil
	}
	f.stock[productID] -= qty
	f.reserved = append(f.reserved, stockMove{productID, qty})
	return true, nil
}

func (f *fakeStock) Release(_ context.Context, productID int64, qty int) error {
	f.stock[productID] += qty
	f.released = append(f.released, stockMove{productID, qty})
	return nil
}

type transferCall struct {
	from, to string
	amount   money.Amount
}

type fakeBank struct {
	accounts    map[string]bool
	balance     money.Amount
	transferErr error
	transfers   []transferCall
	nextTxID    int64
}

func (f *fakeBank) AccountByNumber(_ context.Context, number string) (*port.BankAccount, error) {
	if !f.accounts[number] {
		return nil, fmt.Errorf("bank rejected lookup: account %s not found", number)
	}
	return &port.BankAccount{Number: number, Balance: f.balance}, nil
}

func (f *fakeBank) Transfer(_ context.Context, from, to string, amount money.Amount) (*port.BankTransaction, error) {
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	f.transfers = append(f.transfers, transferCall{from, to, amount})
	f.nextTxID++
	return &port.BankTransaction{ID: f.nextTxID, From: from, To: to, Amount: amount}, nil
}

type fakeNotifier struct {
	settled []string
	failed  []string
}

func (f *fakeNotifier) OrderSettled(_ context.Context, order *domain.Order) error {
	f.settled = append(f.settled, order.Number)
	return nil
}

func (f *fakeNotifier) OrderPaymentFailed(_ context.Context, order *domain.Order, reason string) error {
	f.failed = append(f.failed, order.Number)
	return nil
}

type checkoutFixture struct {
	buyers   *fakeBuyers
	carts    *fakeCarts
	orders   *fakeOrders
	stock    *fakeStock
	bank     *fakeBank
	notifier *fakeNotifier
	service  *CheckoutService
}

// newCheckoutFixture sets up buyer 1 with account "1111" bound and a
// two-line cart: 2 x product 10 at 29.99 and 1 x product 20 at 5.00.
func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		buyers: &fakeBuyers{buyers: map[int64]*domain.Buyer{
			1: {ID: 1, Name: "alice", BankAccountNumber: "1111"},
		}},
		carts:    &fakeCarts{},
		orders:   &fakeOrders{byNumber: map[string]*domain.Order{}},
		stock:    &fakeStock{stock: map[int64]int{10: 5, 20: 5}},
		bank:     &fakeBank{accounts: map[string]bool{"1111": true}, balance: 1000000},
		notifier: &fakeNotifier{},
	}
	f.carts.lines = []*domain.CartLine{
		{ID: 1, BuyerID: 1, ProductID: 10, Quantity: 2, UnitPrice: 2999},
		{ID: 2, BuyerID: 1, ProductID: 20, Quantity: 1, UnitPrice: 500},
	}
	f.carts.nextID = 2
	f.service = NewCheckoutService(
		f.buyers, f.carts, f.orders, f.stock, f.bank, f.notifier,
		testMerchant, testTimeout, otel.Tracer("test"),
	)
	return f
}

func checkoutErr(t *testing.T, err error) *domain.CheckoutError {
	t.Helper()
	var ce *domain.CheckoutError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *domain.CheckoutError", err)
	}
	return ce
}

func TestCheckoutConfirmsOrder(t *testing.T) {
	f := newCheckoutFixture()

	order, err := f.service.Checkout(context.Background(), 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", order.Status)
	}
	if order.Total != 6498 {
		t.Fatalf("total = %d, want 6498", order.Total)
	}
	if order.PaymentRef == "" {
		t.Fatal("payment ref not set")
	}

	if len(f.bank.transfers) != 1 {
		t.Fatalf("made %d transfers, want 1", len(f.bank.transfers))
	}
	tr := f.bank.transfers[0]
	if tr.from != "1111" || tr.to != testMerchant || tr.amount != 6498 {
		t.Fatalf("unexpected transfer %+v", tr)
	}

	if f.stock.stock[10] != 3 || f.stock.stock[20] != 4 {
		t.Fatalf("stock not decremented: %v", f.stock.stock)
	}
	if len(f.carts.cleared) != 1 || f.carts.cleared[0] != 1 {
		t.Fatalf("cart not cleared: %v", f.carts.cleared)
	}
	if len(f.notifier.settled) != 1 || f.notifier.settled[0] != order.Number {
		t.Fatalf("settled event missing: %v", f.notifier.settled)
	}

	stored, err := f.orders.FindByNumber(context.Background(), order.Number)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusConfirmed {
		t.Fatalf("stored status = %s, want CONFIRMED", stored.Status)
	}
}

func TestCheckoutInsufficientStockReleasesEarlierLines(t *testing.T) {
	f := newCheckoutFixture()
	f.stock.stock[20] = 0

	_, err := f.service.Checkout(context.Background(), 1, "")
	ce := checkoutErr(t, err)
	if ce.Kind != domain.FailureInsufficientStock {
		t.Fatalf("kind = %s, want INSUFFICIENT_STOCK", ce.Kind)
	}
	if ce.ProductID != 20 {
		t.Fatalf("product id = %d, want 20", ce.ProductID)
	}

	// The first line was reserved and must be given back exactly once.
	if len(f.stock.released) != 1 || f.stock.released[0] != (stockMove{10, 2}) {
		t.Fatalf("releases = %v, want one release of product 10 x2", f.stock.released)
	}
	if f.stock.stock[10] != 5 {
		t.Fatalf("stock for product 10 = %d, want 5", f.stock.stock[10])
	}

	if len(f.orders.byNumber) != 0 {
		t.Fatal("no order row should exist when reservation fails")
	}
	if len(f.carts.cleared) != 0 {
		t.Fatal("cart must stay intact")
	}
	if len(f.bank.transfers) != 0 {
		t.Fatal("no money should move")
	}
}

func TestCheckoutPaymentFailureCompensates(t *testing.T) {
	f := newCheckoutFixture()
	f.bank.transferErr = errors.New("bank rejected transfer: insufficient balance in account")

	_, err := f.service.Checkout(context.Background(), 1, "")
	ce := checkoutErr(t, err)
	if ce.Kind != domain.FailurePayment {
		t.Fatalf("kind = %s, want PAYMENT_FAILED", ce.Kind)
	}
	if ce.OrderNumber == "" {
		t.Fatal("payment failure must carry the order number")
	}

	order, err := f.orders.FindByNumber(context.Background(), ce.OrderNumber)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.StatusPaymentFailed {
		t.Fatalf("status = %s, want PAYMENT_FAILED", order.Status)
	}
	if order.FailureReason == "" {
		t.Fatal("failure reason not recorded")
	}

	// Both lines released, stock fully restored.
	if f.stock.stock[10] != 5 || f.stock.stock[20] != 5 {
		t.Fatalf("stock not restored: %v", f.stock.stock)
	}
	if len(f.carts.cleared) != 0 {
		t.Fatal("cart must survive a failed payment")
	}
	if len(f.notifier.failed) != 1 || f.notifier.failed[0] != ce.OrderNumber {
		t.Fatalf("payment failed event missing: %v", f.notifier.failed)
	}
	if len(f.notifier.settled) != 0 {
		t.Fatal("no settled event on failure")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.lines = nil

	_, err := f.service.Checkout(context.Background(), 1, "")
	if ce := checkoutErr(t, err); ce.Kind != domain.FailureEmptyCart {
		t.Fatalf("kind = %s, want EMPTY_CART", ce.Kind)
	}
}

func TestCheckoutMissingBankAccount(t *testing.T) {
	f := newCheckoutFixture()
	f.buyers.buyers[1].BankAccountNumber = ""

	_, err := f.service.Checkout(context.Background(), 1, "")
	if ce := checkoutErr(t, err); ce.Kind != domain.FailureMissingBankAccount {
		t.Fatalf("kind = %s, want MISSING_BANK_ACCOUNT", ce.Kind)
	}
	if len(f.stock.reserved) != 0 {
		t.Fatal("nothing should be reserved")
	}
}

func TestCheckoutInsufficientFundsFailsBeforeReserving(t *testing.T) {
	f := newCheckoutFixture()
	f.bank.balance = 100

	_, err := f.service.Checkout(context.Background(), 1, "")
	if ce := checkoutErr(t, err); ce.Kind != domain.FailureInsufficientFunds {
		t.Fatalf("kind = %s, want INSUFFICIENT_FUNDS", ce.Kind)
	}
	if len(f.stock.reserved) != 0 {
		t.Fatal("nothing should be reserved on the advisory balance check")
	}
	if len(f.orders.byNumber) != 0 {
		t.Fatal("no order row should exist")
	}
}

func TestCheckoutInvalidAccount(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.Checkout(context.Background(), 1, "4242")
	if ce := checkoutErr(t, err); ce.Kind != domain.FailureInvalidAccount {
		t.Fatalf("kind = %s, want INVALID_ACCOUNT", ce.Kind)
	}
}

func TestCheckoutBindsAccountEvenWhenPaymentFails(t *testing.T) {
	f := newCheckoutFixture()
	f.buyers.buyers[1].BankAccountNumber = ""
	f.bank.accounts["3333"] = true
	f.bank.transferErr = errors.New("bank rejected transfer: minimum balance floor")

	_, err := f.service.Checkout(context.Background(), 1, "3333")
	if ce := checkoutErr(t, err); ce.Kind != domain.FailurePayment {
		t.Fatalf("kind = %s, want PAYMENT_FAILED", ce.Kind)
	}
	if got := f.buyers.buyers[1].BankAccountNumber; got != "3333" {
		t.Fatalf("account %q not bound to buyer", got)
	}
}

func TestCheckoutRequestedAccountOverridesBound(t *testing.T) {
	f := newCheckoutFixture()
	f.bank.accounts["3333"] = true

	if _, err := f.service.Checkout(context.Background(), 1, "3333"); err != nil {
		t.Fatal(err)
	}
	if f.bank.transfers[0].from != "3333" {
		t.Fatalf("paid from %s, want 3333", f.bank.transfers[0].from)
	}
	// The buyer already had an account on file; it must not be
	// overwritten.
	if got := f.buyers.buyers[1].BankAccountNumber; got != "1111" {
		t.Fatalf("bound account changed to %q", got)
	}
}

func TestOrdersBetweenRejectsInvertedRange(t *testing.T) {
	f := newCheckoutFixture()
	now := time.Now()
	if _, err := f.service.OrdersBetween(context.Background(), 1, now, now.Add(-time.Hour)); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
