package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront-gateway/internal/core/domain"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Client is the Mercado Pago implementation of the PaymentProvider port.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	publicURL   string
	accessToken string
	logger      *slog.Logger
}

// NewClient creates a provider client. baseURL may be empty for the real API;
// tests point it at a local server. publicURL is this service's externally
// reachable address, used to build the notification callback.
func NewClient(accessToken, baseURL, publicURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     baseURL,
		publicURL:   publicURL,
		accessToken: accessToken,
		logger:      logger,
	}
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
	PaymentMethodID   string      `json:"payment_method_id"`
}

// GetPayment fetches the payment referenced by a webhook delivery. The
// payload that arrived in the webhook is never trusted; this lookup is the
// source of truth.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentNotification, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrPaymentNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: payment lookup returned %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var payment paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	return &domain.PaymentNotification{
		PaymentID:         payment.ID.String(),
		Status:            payment.Status,
		ExternalReference: payment.ExternalReference,
		Amount:            payment.TransactionAmount,
		Method:            payment.PaymentMethodID,
	}, nil
}

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferencePayer struct {
	Email string `json:"email,omitempty"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	Payer             preferencePayer  `json:"payer"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	BackURLs          backURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	Expires           bool             `json:"expires"`
	ExpirationDateTo  string           `json:"expiration_date_to"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// CreatePreference creates a checkout session for an order. The order id
// rides along as external_reference so the webhook can find its way back.
func (c *Client) CreatePreference(ctx context.Context, req domain.PreferenceRequest) (*domain.Preference, error) {
	items := make([]preferenceItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, preferenceItem{
			ID:         item.ID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: item.CurrencyID,
		})
	}

	payload := preferenceRequest{
		Items:             items,
		Payer:             preferencePayer{Email: req.PayerEmail},
		ExternalReference: req.OrderID,
		NotificationURL:   c.publicURL + "/webhooks/mercadopago",
		BackURLs: backURLs{
			Success: c.publicURL + "/checkout/success",
			Failure: c.publicURL + "/checkout/failure",
			Pending: c.publicURL + "/checkout/pending",
		},
		AutoReturn:       "approved",
		Expires:          true,
		ExpirationDateTo: time.Now().Add(30 * time.Minute).Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preference: %w", err)
	}

	url := c.baseURL + "/checkout/preferences"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build preference request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: preference creation returned %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var preference preferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&preference); err != nil {
		return nil, fmt.Errorf("failed to decode preference response: %w", err)
	}

	return &domain.Preference{
		ID:               preference.ID,
		InitPoint:        preference.InitPoint,
		SandboxInitPoint: preference.SandboxInitPoint,
	}, nil
}
