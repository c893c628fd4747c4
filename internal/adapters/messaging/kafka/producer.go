package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront-gateway/internal/core/domain"
)

// Broker is the Kafka implementation of the EventPublisher port.
type Broker struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBroker creates a new Kafka broker instance.
func NewBroker(bootstrapServers []string, topic string, logger *slog.Logger) (*Broker, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(bootstrapServers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Broker{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// PublishOrderPaymentUpdated publishes an event after an order's payment
// status changed. Keyed by order id so consumers see one order's updates
// in order.
func (b *Broker) PublishOrderPaymentUpdated(ctx context.Context, order domain.Order, notification domain.PaymentNotification) error {
	message := map[string]interface{}{
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"payment_id":     notification.PaymentID,
		"amount":         notification.Amount,
		"method":         notification.Method,
		"payment_status": string(order.PaymentStatus),
		"order_status":   string(order.Status),
		"updated_at":     time.Now().Format(time.RFC3339),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(order.ID),
		Value: payload,
	}

	b.wg.Add(1)
	b.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		defer b.wg.Done()
		if err != nil {
			b.logger.Error("failed to deliver message to kafka", "topic", r.Topic, "error", err)
		} else {
			b.logger.Debug("message delivered to kafka", "topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
		}
	})

	return nil
}

// Close gracefully stops the producer.
func (b *Broker) Close() {
	b.logger.Info("waiting for in-flight kafka messages...")
	b.wg.Wait()
	b.client.Close()
	b.logger.Info("kafka client stopped")
}
