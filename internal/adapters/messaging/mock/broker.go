package mock

import (
	"context"
	"log/slog"

	"storefront-gateway/internal/core/domain"
)

// Broker is a log-only stand-in for the EventPublisher port, used when no
// Kafka brokers are configured.
type Broker struct {
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger}
}

func (b *Broker) Close() error {
	return nil
}

func (b *Broker) PublishOrderPaymentUpdated(ctx context.Context, order domain.Order, notification domain.PaymentNotification) error {
	b.logger.Info("[MOCK] order payment updated",
		"order_id", order.ID,
		"payment_id", notification.PaymentID,
		"payment_status", string(order.PaymentStatus),
		"order_status", string(order.Status),
	)
	return nil
}
