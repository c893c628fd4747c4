package ports

import (
	"context"

	"storefront-gateway/internal/core/domain"
)

// OrderRepository is the outgoing port to the order store. The store owns the
// order entity; these operations cover exactly what webhook processing and
// payment creation need.
type OrderRepository interface {
	// FindByExternalReference resolves the provider's external_reference
	// (our order id) to an order. Returns domain.ErrOrderNotFound when absent.
	FindByExternalReference(ctx context.Context, reference string) (*domain.Order, error)

	// FindPendingForUser returns the order only if it belongs to the user and
	// is still awaiting payment.
	FindPendingForUser(ctx context.Context, orderID, userID string) (*domain.Order, error)

	// UpdateStatus applies the mapped status pair and records the provider
	// payment id. It only writes when the payment status actually changes and
	// reports whether a row was updated, which keeps re-deliveries idempotent
	// even across instances.
	UpdateStatus(ctx context.Context, orderID string, payment domain.PaymentStatus, status domain.OrderStatus, providerPaymentID string) (bool, error)

	// SetProviderReference stores the checkout preference id on the order.
	SetProviderReference(ctx context.Context, orderID, preferenceID string) error

	// DecrementStock reduces product stock by the quantities of the order's items.
	DecrementStock(ctx context.Context, orderID string) error

	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// PaymentProvider is the outgoing port to the payment processor's API.
type PaymentProvider interface {
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentNotification, error)
	CreatePreference(ctx context.Context, req domain.PreferenceRequest) (*domain.Preference, error)
}

// EventPublisher is the outgoing port for order payment events.
type EventPublisher interface {
	PublishOrderPaymentUpdated(ctx context.Context, order domain.Order, notification domain.PaymentNotification) error
}

// SecurityEventSink records security-relevant rejections for the audit trail.
type SecurityEventSink interface {
	Record(ctx context.Context, event domain.SecurityEvent) error
}

// WebhookService is the incoming port for processing payment notifications.
type WebhookService interface {
	ProcessPaymentNotification(ctx context.Context, paymentID string) error
}
