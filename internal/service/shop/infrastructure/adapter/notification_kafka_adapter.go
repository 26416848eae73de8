package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"shopbank/internal/pkg/mq"
	"shopbank/internal/service/shop/domain"
	"shopbank/internal/service/shop/domain/port"
)

// NotificationKafkaAdapter publishes terminal order events, keyed by
// buyer id so one buyer's events stay ordered within a partition.
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

var _ port.NotificationProducer = (*NotificationKafkaAdapter)(nil)

func (a *NotificationKafkaAdapter) OrderSettled(ctx context.Context, order *domain.Order) error {
	return a.publish(ctx, domain.OrderEvent{
		Type:        domain.EventOrderSettled,
		OrderNumber: order.Number,
		BuyerID:     order.BuyerID,
		Total:       order.Total,
		At:          time.Now(),
	})
}

func (a *NotificationKafkaAdapter) OrderPaymentFailed(ctx context.Context, order *domain.Order, reason string) error {
	return a.publish(ctx, domain.OrderEvent{
		Type:        domain.EventOrderPaymentFailed,
		OrderNumber: order.Number,
		BuyerID:     order.BuyerID,
		Total:       order.Total,
		Reason:      reason,
		At:          time.Now(),
	})
}

func (a *NotificationKafkaAdapter) publish(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal order event")
	}
	key := []byte(fmt.Sprintf("%d", event.BuyerID))
	if err := mq.ProduceMessage(ctx, a.writer, key, payload); err != nil {
		return pkgerrors.Wrap(err, "publish order event")
	}
	return nil
}
