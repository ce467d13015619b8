package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/services/customers"
	"github.com/GalaDe/finance-link-service/internal/services/linking"
	"github.com/GalaDe/finance-link-service/internal/services/transfer"
)

// Linker is served by the linking orchestrator or the workflow dispatcher.
type Linker interface {
	Link(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error)
}

type LinkTokenIssuer interface {
	CreateLinkToken(ctx context.Context, userID, clientName string) (string, error)
}

// Transferrer is served by the transfer orchestrator or the workflow dispatcher.
type Transferrer interface {
	Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)
	TransferBetweenAccounts(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*transfer.Result, error)
}

type CustomerRegistry interface {
	Register(ctx context.Context, params customers.SignUpParams) (*domain.User, error)
	GetUserInfo(ctx context.Context, userID string) (*domain.User, error)
}

type BankReader interface {
	GetBanks(ctx context.Context, userID string) ([]*domain.BankAccount, error)
	GetBank(ctx context.Context, documentID string) (*domain.BankAccount, error)
	GetBankByAccountID(ctx context.Context, accountID string) (*domain.BankAccount, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type WebhookVerifier interface {
	VerifyWebhook(ctx context.Context, body []byte, headers http.Header) (bool, error)
}

type Services struct {
	Linker     Linker
	LinkTokens LinkTokenIssuer
	Transfers  Transferrer
	Customers  CustomerRegistry
	Banks      BankReader
	Webhooks   WebhookVerifier
	// Store is nil when no database is configured.
	Store Pinger

	// ClientName is shown to the user inside Plaid Link.
	ClientName string
	Metrics    http.Handler
	// MissingConfig lists the integrations that are not configured, for /healthz.
	MissingConfig []string
}

type HttpServer struct {
	logger *zap.Logger
	Services
}

func NewHttpServer(logger *zap.Logger, services Services) *HttpServer {
	return &HttpServer{
		logger:   logger,
		Services: services,
	}
}

func (h *HttpServer) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *HttpServer) respondWithError(w http.ResponseWriter, status int, message string) {
	h.respondWithJSON(w, status, map[string]string{"error": message})
}

// respondWithDomainError picks the status from err and always answers with
// the generic message; internal error text is only logged.
func (h *HttpServer) respondWithDomainError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrExternalCallFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrConfigurationMissing):
		status = http.StatusServiceUnavailable
	}

	h.logger.Warn(message, zap.Int("status", status), zap.String("kind", domain.KindOf(err)), zap.Error(err))
	h.respondWithError(w, status, message)
}

func (h *HttpServer) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

const maxBodyBytes = int64(65536)
