package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	appErrors "github.com/unclebandit/creatorhub-backend/internal/errors"
	"github.com/unclebandit/creatorhub-backend/internal/paystack"
	"github.com/unclebandit/creatorhub-backend/internal/service"
)

// maxWebhookBody caps provider payloads; real events are a few KB.
const maxWebhookBody = 1 << 20

type WebhookController struct {
	PaymentService *service.PaymentService
	Logger         *slog.Logger
}

// Paystack verifies the signature over the raw body before anything is decoded.
func (c *WebhookController) Paystack(w http.ResponseWriter, r *http.Request) {
	log := orDiscard(c.Logger)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.Warn("webhook body too large", "limit", tooLarge.Limit)
		WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
		return
	}
	if err != nil {
		log.Error("reading webhook body failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Webhook processing failed"})
		return
	}

	out, err := c.PaymentService.HandleWebhook(r.Context(), body, r.Header.Get(paystack.SignatureHeader))
	switch {
	case errors.Is(err, appErrors.ErrUnauthorized):
		log.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	case err != nil:
		log.Error("webhook processing failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Webhook processing failed"})
		return
	}

	log.Debug("webhook handled", "result", out.Result, "reference", out.Reference)
	WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
