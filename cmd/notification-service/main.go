// The notification-service binary consumes terminal order events and
// turns them into buyer-facing notifications.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"shopbank/internal/pkg/bootstrap"
	"shopbank/internal/pkg/constants"
	"shopbank/internal/pkg/logger"
	"shopbank/internal/pkg/mq"
	"shopbank/internal/service/shop/domain"
)

const (
	servicePort     = 8083
	consumerGroupID = "notification-group"
	consumerCount   = 4
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notifications_total",
	Help: "Order event notifications by type.",
}, []string{"type"})

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	reader := mq.NewReader(cfg.Infra.Kafka.Brokers, consumerGroupID, constants.OrderEventsTopic)

	consumeCtx, stopConsumers := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(consumeCtx)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.NotifService,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())

			tracer := otel.Tracer(constants.NotifService)
			for i := 0; i < consumerCount; i++ {
				group.Go(func() error {
					return consume(groupCtx, reader, tracer)
				})
			}
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumers()
			if err := reader.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("closing kafka reader")
			}
			if err := group.Wait(); err != nil && err != context.Canceled {
				logger.Ctx(ctx).Error().Err(err).Msg("consumer group stopped with error")
			}
		},
	})
}

func consume(ctx context.Context, reader *kafka.Reader, tracer trace.Tracer) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Msg("reading order event, retrying")
			time.Sleep(time.Second)
			continue
		}
		processEvent(ctx, msg, tracer)
	}
}

func processEvent(ctx context.Context, msg kafka.Message, tracer trace.Tracer) {
	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)

	ctx, span := tracer.Start(parentCtx, "notification.ProcessOrderEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal order event")
		logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed order event")
		return
	}

	span.SetAttributes(
		attribute.String("order.number", event.OrderNumber),
		attribute.Int64("buyer.id", event.BuyerID),
	)
	notificationsTotal.WithLabelValues(event.Type).Inc()

	logger.Ctx(ctx).Info().
		Str("order_number", event.OrderNumber).
		Int64("buyer_id", event.BuyerID).
		Str("type", event.Type).
		Msg(renderMessage(event))
	span.AddEvent("notification delivered")
}

// renderMessage is the buyer-facing text for each event type.
func renderMessage(event domain.OrderEvent) string {
	switch event.Type {
	case domain.EventOrderSettled:
		return fmt.Sprintf("Order %s confirmed, %s paid.", event.OrderNumber, event.Total)
	case domain.EventOrderPaymentFailed:
		return fmt.Sprintf("Payment for order %s failed: %s", event.OrderNumber, event.Reason)
	default:
		return fmt.Sprintf("Order %s update: %s", event.OrderNumber, event.Type)
	}
}
