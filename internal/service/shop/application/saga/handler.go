// Package saga runs the checkout as a chain of handlers with LIFO
// compensation. Each handler either completes its step and calls the
// next one, or fails after registering how to undo whatever it had
// already done.
package saga

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"shopbank/internal/pkg/money"
	"shopbank/internal/service/shop/domain"
	"shopbank/internal/service/shop/domain/port"
)

// CheckoutContext carries the state of one checkout through the chain.
type CheckoutContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	Buyer *domain.Buyer
	Lines []*domain.CartLine
	Total money.Amount
	Order *domain.Order

	PayingAccount   string
	MerchantAccount string

	Orders   domain.OrderRepository
	Carts    domain.CartRepository
	Stock    port.StockGuard
	Bank     port.BankService
	Notifier port.NotificationProducer

	// FailureReason is set by the failing handler so compensations can
	// record why the order did not settle.
	FailureReason string

	// PaymentRef is the ledger transaction id once the transfer
	// settles.
	PaymentRef string

	// PaymentSettled flips once money has moved. After that point the
	// checkout never compensates; the order is confirmed even if a
	// later step fails.
	PaymentSettled bool

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation prepends so compensations run in reverse order of
// registration.
func (c *CheckoutContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

func (c *CheckoutContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	log.Info().Int("count", len(c.compensations)).Msg("executing checkout compensations")
	for _, comp := range c.compensations {
		comp(ctx)
	}
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(checkout *CheckoutContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(checkout *CheckoutContext) error {
	if h.next != nil {
		return h.next.Handle(checkout)
	}
	return nil
}
