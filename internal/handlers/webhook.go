package handlers

import (
	"io"
	"net/http"

	"github.com/upliftingvibes/backend/internal/logging"
)

// maxWebhookBody bounds an inbound event payload.
const maxWebhookBody = 1 << 20

// WebhookHandler receives signed events from the payment processor. It is
// invoked only by the processor, never by browsers.
type WebhookHandler struct {
	Verifier  EventVerifier
	Processor EventProcessor
}

// Handle implements POST /api/v1/stripe/webhook. A 200 acknowledges the
// event; any 500 makes the processor redeliver, so downstream writes must be
// idempotent.
func (h WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Verifier == nil || h.Processor == nil {
		logger.Error("webhook dependencies unavailable", "hasVerifier", h.Verifier != nil, "hasProcessor", h.Processor != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "webhook services unavailable"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("read webhook payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unable to read payload"})
		return
	}

	event, err := h.Verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.Processor.Process(ctx, event); err != nil {
		logger.Error("webhook processing failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"received": true})
}
