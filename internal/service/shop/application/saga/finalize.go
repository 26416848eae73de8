package saga

import (
	"shopbank/internal/pkg/logger"
)

// FinalizeHandler runs after money has moved. Nothing in here may fail
// the checkout: the transfer settled, so the order is confirmed and
// any hiccup is logged for followup instead of compensated.
type FinalizeHandler struct {
	NextHandler
}

func (h *FinalizeHandler) Handle(checkout *CheckoutContext) error {
	ctx, span := checkout.Tracer.Start(checkout.Ctx, "saga.Finalize")
	defer span.End()

	order := checkout.Order
	if err := order.MarkConfirmed(checkout.PaymentRef); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_number", order.Number).
			Msg("confirming settled order")
		return h.executeNext(checkout)
	}
	if err := checkout.Orders.Save(ctx, order); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_number", order.Number).
			Msg("persisting confirmed order, row left PENDING in store")
	}

	if err := checkout.Carts.Clear(ctx, checkout.Buyer.ID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Int64("buyer_id", checkout.Buyer.ID).
			Msg("clearing cart after settlement")
	}

	if err := checkout.Notifier.OrderSettled(ctx, order); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_number", order.Number).
			Msg("publishing settled order event")
	}

	span.AddEvent("order confirmed")
	return h.executeNext(checkout)
}
