package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"storefront-gateway/internal/core/domain"
	"storefront-gateway/internal/core/ports"
	"storefront-gateway/internal/observability"
	"storefront-gateway/internal/webhook"
)

const maxWebhookBodyBytes = 64 * 1024

// WebhookHandler receives payment notifications from the provider.
type WebhookHandler struct {
	verifier *webhook.Verifier
	service  ports.WebhookService
	sink     ports.SecurityEventSink
	logger   *slog.Logger
}

func NewWebhookHandler(verifier *webhook.Verifier, service ports.WebhookService, sink ports.SecurityEventSink, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		service:  service,
		sink:     sink,
		logger:   logger,
	}
}

type webhookRequest struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleNotification processes a provider notification. A notification with
// a bad signature is acknowledged with 200 so the response does not leak
// whether verification succeeded; the rejection is recorded out of band.
func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("x-signature")
	requestID := r.Header.Get("x-request-id")
	if signature == "" || requestID == "" {
		observability.ObserveWebhookVerification("malformed")
		writeJSONError(w, "missing signature headers", http.StatusBadRequest)
		return
	}

	var req webhookRequest
	body := http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		observability.ObserveWebhookVerification("malformed")
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Type != "payment" {
		// Other notification topics are acknowledged and ignored.
		h.logger.Debug("ignoring non-payment notification", "type", req.Type, "action", req.Action)
		h.writeAck(w)
		return
	}

	if req.Data.ID == "" {
		observability.ObserveWebhookVerification("malformed")
		writeJSONError(w, "missing data.id", http.StatusBadRequest)
		return
	}

	if !h.verifier.Verify(signature, requestID, req.Data.ID) {
		observability.ObserveWebhookVerification("rejected")
		h.logger.Warn("webhook signature verification failed",
			"request_id", requestID, "payment_id", req.Data.ID, "ip", ClientIdentifier(r))
		if err := h.sink.Record(r.Context(), domain.SecurityEvent{
			Type:     domain.EventInvalidWebhookSignature,
			Severity: domain.SeverityHigh,
			IP:       ClientIdentifier(r),
			Detail:   "payment " + req.Data.ID,
		}); err != nil {
			h.logger.Error("failed to record security event", "error", err)
		}
		h.writeAck(w)
		return
	}

	observability.ObserveWebhookVerification("accepted")

	if err := h.service.ProcessPaymentNotification(r.Context(), req.Data.ID); err != nil {
		h.logger.Error("webhook processing failed", "payment_id", req.Data.ID, "error", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeAck(w)
}

// HandleLiveness answers the provider's endpoint probe.
func (h *WebhookHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *WebhookHandler) writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"received": "true"}); err != nil {
		h.logger.Error("failed to write json response", "error", err)
	}
}
