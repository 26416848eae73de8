package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"shopbank/internal/pkg/logger"
	"shopbank/internal/service/shop/domain"
)

// CreateOrderHandler persists the PENDING order row. The row is an
// audit record of the attempt and survives every later failure.
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(checkout *CheckoutContext) error {
	ctx, span := checkout.Tracer.Start(checkout.Ctx, "saga.CreateOrder")
	defer span.End()

	order := domain.NewOrder(checkout.Buyer.ID, checkout.Total, checkout.Lines)
	if err := checkout.Orders.Save(ctx, order); err != nil {
		span.RecordError(err)
		return &domain.CheckoutError{
			Kind:   domain.FailureInternal,
			Reason: fmt.Sprintf("saving order: %v", err),
		}
	}
	checkout.Order = order
	span.SetAttributes(attribute.String("order.number", order.Number))
	span.AddEvent("pending order saved")

	// If payment fails downstream the row stays, marked as a failed
	// attempt.
	checkout.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := checkout.Tracer.Start(compCtx, "saga.compensation.MarkPaymentFailed")
		defer compSpan.End()

		if err := order.MarkPaymentFailed(checkout.FailureReason); err != nil {
			compSpan.RecordError(err)
			return
		}
		if err := checkout.Orders.Save(compCtx, order); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Str("order_number", order.Number).
				Msg("recording failed order state did not persist")
		}
	})

	return h.executeNext(checkout)
}
