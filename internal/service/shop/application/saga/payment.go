package saga

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopbank/internal/service/shop/domain"
)

// PaymentHandler moves the order total from the buyer's account to the
// merchant account. The call is bounded; a timeout counts as a payment
// failure and is never retried, since the ledger exposes no
// idempotency key.
type PaymentHandler struct {
	NextHandler
	timeout time.Duration
}

func NewPaymentHandler(timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{timeout: timeout}
}

func (h *PaymentHandler) Handle(checkout *CheckoutContext) error {
	ctx, span := checkout.Tracer.Start(checkout.Ctx, "saga.Payment")
	defer span.End()

	span.SetAttributes(
		attribute.String("order.number", checkout.Order.Number),
		attribute.String("amount", checkout.Total.String()),
	)

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	tx, err := checkout.Bank.Transfer(callCtx, checkout.PayingAccount, checkout.MerchantAccount, checkout.Total)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment failed")
		checkout.FailureReason = err.Error()
		return &domain.CheckoutError{
			Kind:        domain.FailurePayment,
			OrderNumber: checkout.Order.Number,
			Reason:      err.Error(),
		}
	}

	checkout.PaymentRef = fmt.Sprintf("%d", tx.ID)
	checkout.PaymentSettled = true
	span.AddEvent("transfer settled")

	return h.executeNext(checkout)
}
