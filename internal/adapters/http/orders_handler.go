package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"storefront-gateway/internal/core/ports"
)

// OrdersHandler serves the authenticated user's order history.
type OrdersHandler struct {
	orders ports.OrderRepository
	logger *slog.Logger
}

func NewOrdersHandler(orders ports.OrderRepository, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders: orders,
		logger: logger,
	}
}

type orderResponse struct {
	ID            string    `json:"id"`
	Total         float64   `json:"total"`
	PaymentStatus string    `json:"payment_status"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (h *OrdersHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if userID == "" {
		writeJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("order listing failed", "user_id", userID, "error", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, orderResponse{
			ID:            order.ID,
			Total:         order.Total,
			PaymentStatus: string(order.PaymentStatus),
			Status:        string(order.Status),
			CreatedAt:     order.CreatedAt,
			UpdatedAt:     order.UpdatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}
