package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shopbank/internal/pkg/logger"
	"shopbank/internal/service/shop/domain"
)

// ReserveStockHandler decrements stock for every cart line before any
// money moves.
type ReserveStockHandler struct {
	NextHandler
}

func (h *ReserveStockHandler) Handle(checkout *CheckoutContext) error {
	ctx, span := checkout.Tracer.Start(checkout.Ctx, "saga.ReserveStock")
	defer span.End()

	reserved := make([]*domain.CartLine, 0, len(checkout.Lines))
	for _, line := range checkout.Lines {
		ok, err := checkout.Stock.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock reservation failed")
			h.releaseReserved(ctx, checkout, reserved)
			return &domain.CheckoutError{
				Kind:   domain.FailureInternal,
				Reason: fmt.Sprintf("reserving product %d: %v", line.ProductID, err),
			}
		}
		if !ok {
			span.SetAttributes(attribute.Int64("product.id", line.ProductID))
			span.SetStatus(codes.Error, "insufficient stock")
			h.releaseReserved(ctx, checkout, reserved)
			return &domain.CheckoutError{
				Kind:      domain.FailureInsufficientStock,
				ProductID: line.ProductID,
				Reason:    fmt.Sprintf("not enough stock for quantity %d", line.Quantity),
			}
		}
		reserved = append(reserved, line)
	}

	span.AddEvent("all lines reserved")

	// The full reservation is undone only through this compensation,
	// so a reserve failure above never double-releases.
	checkout.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := checkout.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
		defer compSpan.End()
		h.releaseReserved(compCtx, checkout, checkout.Lines)
	})

	return h.executeNext(checkout)
}

// releaseReserved gives back stock for the lines already decremented.
// Release failures are recorded and skipped; one stuck product must
// not keep the others reserved.
func (h *ReserveStockHandler) releaseReserved(ctx context.Context, checkout *CheckoutContext, lines []*domain.CartLine) {
	for _, line := range lines {
		if err := checkout.Stock.Release(ctx, line.ProductID, line.Quantity); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Int64("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("stock release failed, manual correction needed")
		}
	}
}
