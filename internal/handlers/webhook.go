package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

/*

| Endpoint              | Description                                      |
| --------------------- | ------------------------------------------------ |
| `POST /webhook/plaid` | Receive item events from Plaid (errors, expiry)  |

*/

type PlaidWebhookEvent struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
	Error       *struct {
		ErrorCode    string `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
}

func (h *HttpServer) PlaidWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "error reading webhook request")
		return
	}

	ok, err := h.Webhooks.VerifyWebhook(r.Context(), payload, r.Header)
	if err != nil || !ok {
		h.logger.Warn("rejected plaid webhook", zap.Error(err))
		h.respondWithError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var event PlaidWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid plaid webhook payload")
		return
	}

	fields := []zap.Field{
		zap.String("webhook_type", event.WebhookType),
		zap.String("webhook_code", event.WebhookCode),
		zap.String("item_id", event.ItemID),
	}
	switch {
	case event.WebhookType == "ITEM" && (event.WebhookCode == "ERROR" || event.WebhookCode == "PENDING_EXPIRATION"):
		if event.Error != nil {
			fields = append(fields, zap.String("error_code", event.Error.ErrorCode))
		}
		h.logger.Warn("plaid item needs attention", fields...)
	default:
		h.logger.Info("plaid webhook received", fields...)
	}

	w.WriteHeader(http.StatusOK)
}
