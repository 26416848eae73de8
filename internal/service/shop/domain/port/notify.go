package port

import (
	"context"

	"shopbank/internal/service/shop/domain"
)

// NotificationProducer publishes terminal order events. Failures are
// logged by callers but never undo a settled checkout.
type NotificationProducer interface {
	OrderSettled(ctx context.Context, order *domain.Order) error
	OrderPaymentFailed(ctx context.Context, order *domain.Order, reason string) error
}
