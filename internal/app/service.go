package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront-gateway/internal/core/domain"
	"storefront-gateway/internal/core/ports"
)

// WebhookService applies verified payment notifications to the order store.
// The provider delivers at least once, so every step is written to be safe
// under duplicate deliveries.
type WebhookService struct {
	orders   ports.OrderRepository
	payments ports.PaymentProvider
	events   ports.EventPublisher
	logger   *slog.Logger
}

func NewWebhookService(orders ports.OrderRepository, payments ports.PaymentProvider, events ports.EventPublisher, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		orders:   orders,
		payments: payments,
		events:   events,
		logger:   logger,
	}
}

// ProcessPaymentNotification looks up the payment at the provider, maps its
// status to our vocabulary and applies it to the referenced order.
//
// Malformed payloads (no external reference, unknown payment or order) are
// logged and abandoned without error: the provider will not retry forever and
// losing one broken delivery beats failing the whole handler. A nil return
// therefore means "delivery consumed", not "order updated".
func (s *WebhookService) ProcessPaymentNotification(ctx context.Context, paymentID string) error {
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.logger.Warn("payment not found at provider, abandoning delivery", "payment_id", paymentID)
			return nil
		}
		return fmt.Errorf("fetching payment %s: %w", paymentID, err)
	}

	if payment.ExternalReference == "" {
		s.logger.Warn("payment carries no external reference, abandoning delivery", "payment_id", paymentID)
		return nil
	}

	order, err := s.orders.FindByExternalReference(ctx, payment.ExternalReference)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.logger.Warn("no order for external reference, abandoning delivery",
				"payment_id", paymentID, "external_reference", payment.ExternalReference)
			return nil
		}
		return fmt.Errorf("looking up order %s: %w", payment.ExternalReference, err)
	}

	newPayment, newStatus := domain.MapPaymentStatus(payment.Status)

	if order.PaymentStatus == newPayment {
		// Duplicate delivery of a state we already hold: no write, no side effects.
		s.logger.Debug("payment status unchanged, nothing to apply",
			"order_id", order.ID, "payment_status", string(newPayment))
		return nil
	}

	changed, err := s.orders.UpdateStatus(ctx, order.ID, newPayment, newStatus, payment.PaymentID)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	if !changed {
		// A concurrent duplicate won the race; its side effects already ran.
		return nil
	}

	if newPayment == domain.PaymentPaid {
		if err := s.orders.DecrementStock(ctx, order.ID); err != nil {
			// The payment is already recorded; stock drift is an operational
			// followup, not a reason to make the provider retry.
			s.logger.Error("stock decrement failed", "order_id", order.ID, "error", err)
		}
	}

	order.PaymentStatus = newPayment
	order.Status = newStatus
	order.ProviderPaymentID = payment.PaymentID

	if err := s.events.PublishOrderPaymentUpdated(ctx, *order, *payment); err != nil {
		s.logger.Error("failed to publish order payment event", "order_id", order.ID, "error", err)
	}

	s.logger.Info("order status updated",
		"order_id", order.ID,
		"payment_id", payment.PaymentID,
		"payment_status", string(newPayment),
		"order_status", string(newStatus),
	)
	return nil
}
