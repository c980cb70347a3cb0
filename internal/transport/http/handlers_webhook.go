package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"betengine/internal/platform/metrics"
	"betengine/internal/webhook"
	dErrors "betengine/pkg/domainerrors"
)

// maxWebhookBody caps how much of a delivery we are willing to buffer.
const maxWebhookBody = 1 << 20

// WebhookProcessor runs one delivery through the idempotency guard.
type WebhookProcessor interface {
	Process(ctx context.Context, rawBody []byte, signature string) (webhook.Outcome, error)
}

type WebhookHandler struct {
	processor       WebhookProcessor
	signatureHeader string
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

func NewWebhookHandler(processor WebhookProcessor, signatureHeader string, logger *slog.Logger, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		processor:       processor,
		signatureHeader: signatureHeader,
		logger:          logger,
		metrics:         m,
	}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/payment", h.handlePayment)
}

func (h *WebhookHandler) handlePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The signature covers the raw bytes, so the body is read before any
	// JSON handling.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "unreadable request body"))
		return
	}

	outcome, err := h.processor.Process(ctx, body, r.Header.Get(h.signatureHeader))
	if err != nil {
		result := "rejected"
		if dErrors.CodeOf(err) == dErrors.CodeUpstream {
			result = "unavailable"
		}
		h.metrics.WebhookEvents.WithLabelValues(result).Inc()
		h.logger.WarnContext(ctx, "payment webhook rejected", "error", err)
		writeError(w, err)
		return
	}

	switch outcome {
	case webhook.OutcomeDuplicate:
		h.metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
	default:
		h.metrics.WebhookEvents.WithLabelValues("processed").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
	}
}
