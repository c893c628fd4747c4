package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"storefront-gateway/internal/core/domain"
	"storefront-gateway/internal/core/ports"
)

// PaymentsHandler creates provider checkout sessions for pending orders.
type PaymentsHandler struct {
	orders   ports.OrderRepository
	payments ports.PaymentProvider
	logger   *slog.Logger
}

func NewPaymentsHandler(orders ports.OrderRepository, payments ports.PaymentProvider, logger *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		orders:   orders,
		payments: payments,
		logger:   logger,
	}
}

type createPaymentRequest struct {
	OrderID    string `json:"order_id"`
	PayerEmail string `json:"payer_email"`
}

type createPaymentResponse struct {
	PreferenceID     string `json:"preference_id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

func (h *PaymentsHandler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if userID == "" {
		writeJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" {
		writeJSONError(w, "order_id is required", http.StatusBadRequest)
		return
	}

	// Ownership and state are checked together: an order that belongs to
	// someone else and an order that was already paid both read as not found.
	order, err := h.orders.FindPendingForUser(r.Context(), req.OrderID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("order lookup failed", "order_id", req.OrderID, "error", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	preference, err := h.payments.CreatePreference(r.Context(), domain.PreferenceRequest{
		OrderID: order.ID,
		Items: []domain.PreferenceItem{{
			ID:         order.ID,
			Title:      fmt.Sprintf("Pedido %s", order.ID),
			Quantity:   1,
			UnitPrice:  order.Total,
			CurrencyID: "ARS",
		}},
		PayerEmail: req.PayerEmail,
	})
	if err != nil {
		h.logger.Error("preference creation failed", "order_id", order.ID, "error", err)
		writeJSONError(w, "payment provider unavailable", http.StatusBadGateway)
		return
	}

	if err := h.orders.SetProviderReference(r.Context(), order.ID, preference.ID); err != nil {
		h.logger.Error("failed to store preference id", "order_id", order.ID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createPaymentResponse{
		PreferenceID:     preference.ID,
		InitPoint:        preference.InitPoint,
		SandboxInitPoint: preference.SandboxInitPoint,
	}); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}
