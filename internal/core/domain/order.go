package domain

import "time"

// PaymentStatus is our own type for payment statuses to avoid "magic strings".
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// OrderStatus tracks the fulfilment side of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

// Order is the slice of the store's order record this service consumes.
// The order store owns the full entity; we only read identity and write the
// two status fields plus the provider references.
type Order struct {
	ID                string
	UserID            string
	Total             float64
	PaymentStatus     PaymentStatus
	Status            OrderStatus
	ProviderPaymentID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentNotification is what the provider reports about a payment.
// ExternalReference carries our order id.
type PaymentNotification struct {
	PaymentID         string
	Status            string
	ExternalReference string
	Amount            float64
	Method            string
}

// PreferenceItem is one line of a checkout preference sent to the provider.
type PreferenceItem struct {
	ID         string
	Title      string
	Quantity   int
	UnitPrice  float64
	CurrencyID string
}

// PreferenceRequest describes the checkout preference to create for an order.
type PreferenceRequest struct {
	OrderID    string
	Items      []PreferenceItem
	PayerEmail string
}

// Preference is the provider's handle for a created checkout session.
type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// MapPaymentStatus maps the provider's payment status vocabulary onto our
// two-level status pair. The mapping is total: anything unrecognized defaults
// to pending rather than failing, so an unknown status can never crash
// webhook processing.
func MapPaymentStatus(providerStatus string) (PaymentStatus, OrderStatus) {
	switch providerStatus {
	case "approved", "authorized":
		return PaymentPaid, OrderConfirmed
	case "pending", "in_process", "in_mediation":
		return PaymentPending, OrderPending
	case "rejected", "cancelled":
		return PaymentFailed, OrderCancelled
	case "refunded", "charged_back":
		return PaymentRefunded, OrderRefunded
	default:
		return PaymentPending, OrderPending
	}
}
