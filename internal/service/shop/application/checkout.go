package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shopbank/internal/pkg/logger"
	"shopbank/internal/pkg/money"
	"shopbank/internal/service/shop/application/saga"
	"shopbank/internal/service/shop/domain"
	"shopbank/internal/service/shop/domain/port"
)

var checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shop_checkouts_total",
	Help: "Checkout attempts by outcome.",
}, []string{"outcome"})

// CheckoutService orchestrates the buy flow: stock reservation, order
// creation, payment against the remote ledger, and cleanup.
type CheckoutService struct {
	buyers   domain.BuyerRepository
	carts    domain.CartRepository
	orders   domain.OrderRepository
	stock    port.StockGuard
	bank     port.BankService
	notifier port.NotificationProducer

	merchantAccount string
	bankCallTimeout time.Duration
	tracer          trace.Tracer
}

func NewCheckoutService(
	buyers domain.BuyerRepository,
	carts domain.CartRepository,
	orders domain.OrderRepository,
	stock port.StockGuard,
	bank port.BankService,
	notifier port.NotificationProducer,
	merchantAccount string,
	bankCallTimeout time.Duration,
	tracer trace.Tracer,
) *CheckoutService {
	return &CheckoutService{
		buyers: buyers, carts: carts, orders: orders,
		stock: stock, bank: bank, notifier: notifier,
		merchantAccount: merchantAccount,
		bankCallTimeout: bankCallTimeout,
		tracer:          tracer,
	}
}

// Checkout runs the whole flow for one buyer. On success the returned
// order is CONFIRMED and the cart has been cleared. On failure the
// returned error is a *domain.CheckoutError and the cart is untouched.
func (s *CheckoutService) Checkout(ctx context.Context, buyerID int64, accountNumber string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.Checkout")
	defer span.End()
	span.SetAttributes(attribute.Int64("buyer.id", buyerID))

	buyer, err := s.buyers.FindByID(ctx, buyerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	lines, err := s.carts.LinesFor(ctx, buyerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(lines) == 0 {
		return nil, s.fail(span, &domain.CheckoutError{
			Kind:   domain.FailureEmptyCart,
			Reason: "cart is empty",
		})
	}

	total := domain.CartTotal(lines)
	span.SetAttributes(attribute.String("checkout.total", total.String()))

	payingAccount, err := s.resolvePayingAccount(ctx, buyer, accountNumber, total)
	if err != nil {
		var checkoutErr *domain.CheckoutError
		if errors.As(err, &checkoutErr) {
			return nil, s.fail(span, checkoutErr)
		}
		span.RecordError(err)
		return nil, err
	}

	checkout := &saga.CheckoutContext{
		Ctx:             ctx,
		Tracer:          s.tracer,
		Buyer:           buyer,
		Lines:           lines,
		Total:           total,
		PayingAccount:   payingAccount,
		MerchantAccount: s.merchantAccount,
		Orders:          s.orders,
		Carts:           s.carts,
		Stock:           s.stock,
		Bank:            s.bank,
		Notifier:        s.notifier,
	}

	chain := s.buildChain()
	if err := chain.Handle(checkout); err != nil {
		if !checkout.PaymentSettled {
			checkout.TriggerCompensation(ctx)
		}
		if checkout.Order != nil && checkout.Order.Status == domain.StatusPaymentFailed {
			if notifyErr := s.notifier.OrderPaymentFailed(ctx, checkout.Order, checkout.FailureReason); notifyErr != nil {
				logger.Ctx(ctx).Error().Err(notifyErr).
					Str("order_number", checkout.Order.Number).
					Msg("publishing payment failed event")
			}
		}

		var checkoutErr *domain.CheckoutError
		if !errors.As(err, &checkoutErr) {
			checkoutErr = &domain.CheckoutError{Kind: domain.FailureInternal, Reason: err.Error()}
		}
		return nil, s.fail(span, checkoutErr)
	}

	checkoutsTotal.WithLabelValues("confirmed").Inc()
	span.AddEvent("checkout confirmed")
	logger.Ctx(ctx).Info().
		Str("order_number", checkout.Order.Number).
		Int64("buyer_id", buyerID).
		Str("total", total.String()).
		Msg("checkout confirmed")
	return checkout.Order, nil
}

// resolvePayingAccount picks the account the buyer pays from. A number
// supplied on the request wins and, when the buyer has none on file
// yet, is bound to the buyer permanently. Binding sticks even when the
// checkout later fails. The balance check here is advisory, it saves a
// doomed reservation round trip; the transfer re-checks
// authoritatively.
func (s *CheckoutService) resolvePayingAccount(ctx context.Context, buyer *domain.Buyer, requested string, total money.Amount) (string, error) {
	number := requested
	if number == "" {
		number = buyer.BankAccountNumber
	}
	if number == "" {
		return "", &domain.CheckoutError{
			Kind:   domain.FailureMissingBankAccount,
			Reason: "buyer has no bank account on file and none was supplied",
		}
	}

	account, err := s.bank.AccountByNumber(ctx, number)
	if err != nil {
		return "", &domain.CheckoutError{
			Kind:   domain.FailureInvalidAccount,
			Reason: fmt.Sprintf("account %s: %v", number, err),
		}
	}

	if buyer.BankAccountNumber == "" {
		buyer.BankAccountNumber = number
		if err := s.buyers.Save(ctx, buyer); err != nil {
			return "", err
		}
	}

	if account.Balance < total {
		return "", &domain.CheckoutError{
			Kind:   domain.FailureInsufficientFunds,
			Reason: fmt.Sprintf("account %s holds %s, order total is %s", number, account.Balance, total),
		}
	}
	return number, nil
}

func (s *CheckoutService) fail(span trace.Span, err *domain.CheckoutError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Kind.String())
	checkoutsTotal.WithLabelValues(err.Kind.String()).Inc()
	return err
}

func (s *CheckoutService) buildChain() saga.Handler {
	chain := new(saga.ReserveStockHandler)
	chain.
		SetNext(new(saga.CreateOrderHandler)).
		SetNext(saga.NewPaymentHandler(s.bankCallTimeout)).
		SetNext(new(saga.FinalizeHandler))
	return chain
}

// OrderByNumber returns a single order.
func (s *CheckoutService) OrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.orders.FindByNumber(ctx, number)
}

// OrdersFor lists a buyer's orders, newest first.
func (s *CheckoutService) OrdersFor(ctx context.Context, buyerID int64) ([]*domain.Order, error) {
	return s.orders.FindByBuyer(ctx, buyerID)
}

// OrdersBetween lists a buyer's orders created in [from, to).
func (s *CheckoutService) OrdersBetween(ctx context.Context, buyerID int64, from, to time.Time) ([]*domain.Order, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("invalid range: %s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return s.orders.FindByBuyerBetween(ctx, buyerID, from, to)
}
