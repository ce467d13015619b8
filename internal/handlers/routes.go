package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func RegisterRoutes(h *HttpServer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Customers
	r.Post("/customers", h.RegisterCustomer)
	r.Get("/users/{userID}", h.GetUserInfo)

	// Linking
	r.Post("/link/token", h.CreateLinkToken)
	r.Post("/link/exchange", h.ExchangePublicToken)

	// Bank accounts
	r.Get("/banks", h.GetBanks)
	r.Get("/banks/{id}", h.GetBank)
	r.Get("/banks/account/{accountID}", h.GetBankByAccountID)

	// Transfers
	r.Post("/transfers", h.CreateTransfer)

	// Webhooks
	r.Post("/webhook/plaid", h.PlaidWebhook)

	return r
}

func (h *HttpServer) Health(w http.ResponseWriter, r *http.Request) {
	code, status := http.StatusOK, "ok"
	if len(h.MissingConfig) > 0 {
		status = "degraded"
	}
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			h.logger.Error("database ping failed", zap.Error(err))
			code, status = http.StatusServiceUnavailable, "unavailable"
		}
	}

	missing := h.MissingConfig
	if missing == nil {
		missing = []string{}
	}
	h.respondWithJSON(w, code, map[string]interface{}{
		"status":  status,
		"missing": missing,
	})
}
