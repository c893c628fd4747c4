package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storefront-gateway/internal/core/domain"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) FindByExternalReference(ctx context.Context, reference string) (*domain.Order, error) {
	args := m.Called(ctx, reference)
	if order := args.Get(0); order != nil {
		return order.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) FindPendingForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, userID)
	if order := args.Get(0); order != nil {
		return order.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrders) UpdateStatus(ctx context.Context, orderID string, payment domain.PaymentStatus, status domain.OrderStatus, providerPaymentID string) (bool, error) {
	args := m.Called(ctx, orderID, payment, status, providerPaymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrders) SetProviderReference(ctx context.Context, orderID, preferenceID string) error {
	args := m.Called(ctx, orderID, preferenceID)
	return args.Error(0)
}

func (m *MockOrders) DecrementStock(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrders) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if orders := args.Get(0); orders != nil {
		return orders.([]domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentNotification, error) {
	args := m.Called(ctx, paymentID)
	if payment := args.Get(0); payment != nil {
		return payment.(*domain.PaymentNotification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) CreatePreference(ctx context.Context, req domain.PreferenceRequest) (*domain.Preference, error) {
	args := m.Called(ctx, req)
	if pref := args.Get(0); pref != nil {
		return pref.(*domain.Preference), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderPaymentUpdated(ctx context.Context, order domain.Order, notification domain.PaymentNotification) error {
	args := m.Called(ctx, order, notification)
	return args.Error(0)
}

func newTestService(orders *MockOrders, provider *MockProvider, publisher *MockPublisher) *WebhookService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWebhookService(orders, provider, publisher, logger)
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-123",
		UserID:        "user-1",
		Total:         1500,
		PaymentStatus: domain.PaymentPending,
		Status:        domain.OrderPending,
	}
}

func TestProcessPaymentNotification_AppliesApprovedPayment(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	provider.On("GetPayment", ctx, "pay-1").Return(&domain.PaymentNotification{
		PaymentID:         "pay-1",
		Status:            "approved",
		ExternalReference: "order-123",
		Amount:            1500,
		Method:            "credit_card",
	}, nil)
	orders.On("FindByExternalReference", ctx, "order-123").Return(pendingOrder(), nil)
	orders.On("UpdateStatus", ctx, "order-123", domain.PaymentPaid, domain.OrderConfirmed, "pay-1").Return(true, nil)
	orders.On("DecrementStock", ctx, "order-123").Return(nil)
	publisher.On("PublishOrderPaymentUpdated", ctx, mock.AnythingOfType("domain.Order"), mock.AnythingOfType("domain.PaymentNotification")).Return(nil)

	err := service.ProcessPaymentNotification(ctx, "pay-1")

	assert.NoError(t, err)
	orders.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

// Re-delivering a status the order already holds must be a no-op: no write,
// no stock decrement, no event.
func TestProcessPaymentNotification_Idempotent(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	paid := pendingOrder()
	paid.PaymentStatus = domain.PaymentPaid
	paid.Status = domain.OrderConfirmed

	provider.On("GetPayment", ctx, "pay-1").Return(&domain.PaymentNotification{
		PaymentID:         "pay-1",
		Status:            "approved",
		ExternalReference: "order-123",
	}, nil)
	orders.On("FindByExternalReference", ctx, "order-123").Return(paid, nil)

	err := service.ProcessPaymentNotification(ctx, "pay-1")

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishOrderPaymentUpdated", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPaymentNotification_RejectedPaymentSkipsStock(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	provider.On("GetPayment", ctx, "pay-2").Return(&domain.PaymentNotification{
		PaymentID:         "pay-2",
		Status:            "rejected",
		ExternalReference: "order-123",
	}, nil)
	orders.On("FindByExternalReference", ctx, "order-123").Return(pendingOrder(), nil)
	orders.On("UpdateStatus", ctx, "order-123", domain.PaymentFailed, domain.OrderCancelled, "pay-2").Return(true, nil)
	publisher.On("PublishOrderPaymentUpdated", ctx, mock.AnythingOfType("domain.Order"), mock.AnythingOfType("domain.PaymentNotification")).Return(nil)

	err := service.ProcessPaymentNotification(ctx, "pay-2")

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything)
	orders.AssertExpectations(t)
}

func TestProcessPaymentNotification_MissingExternalReferenceAbandons(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	provider.On("GetPayment", ctx, "pay-3").Return(&domain.PaymentNotification{
		PaymentID: "pay-3",
		Status:    "approved",
	}, nil)

	err := service.ProcessPaymentNotification(ctx, "pay-3")

	assert.NoError(t, err, "a malformed delivery is consumed, not failed")
	orders.AssertNotCalled(t, "FindByExternalReference", mock.Anything, mock.Anything)
}

func TestProcessPaymentNotification_UnknownOrderAbandons(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	provider.On("GetPayment", ctx, "pay-4").Return(&domain.PaymentNotification{
		PaymentID:         "pay-4",
		Status:            "approved",
		ExternalReference: "order-gone",
	}, nil)
	orders.On("FindByExternalReference", ctx, "order-gone").Return(nil, domain.ErrOrderNotFound)

	err := service.ProcessPaymentNotification(ctx, "pay-4")

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// An unrecognized provider status maps to pending; against a pending order
// that is a no-op rather than an error.
func TestProcessPaymentNotification_UnknownStatusIsSafe(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	provider.On("GetPayment", ctx, "pay-5").Return(&domain.PaymentNotification{
		PaymentID:         "pay-5",
		Status:            "some_future_status",
		ExternalReference: "order-123",
	}, nil)
	orders.On("FindByExternalReference", ctx, "order-123").Return(pendingOrder(), nil)

	err := service.ProcessPaymentNotification(ctx, "pay-5")

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessPaymentNotification_RaceLostSkipsSideEffects(t *testing.T) {
	orders := new(MockOrders)
	provider := new(MockProvider)
	publisher := new(MockPublisher)
	service := newTestService(orders, provider, publisher)
	ctx := context.Background()

	provider.On("GetPayment", ctx, "pay-6").Return(&domain.PaymentNotification{
		PaymentID:         "pay-6",
		Status:            "approved",
		ExternalReference: "order-123",
	}, nil)
	orders.On("FindByExternalReference", ctx, "order-123").Return(pendingOrder(), nil)
	// Another instance applied the same transition between our read and write.
	orders.On("UpdateStatus", ctx, "order-123", domain.PaymentPaid, domain.OrderConfirmed, "pay-6").Return(false, nil)

	err := service.ProcessPaymentNotification(ctx, "pay-6")

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishOrderPaymentUpdated", mock.Anything, mock.Anything, mock.Anything)
}
