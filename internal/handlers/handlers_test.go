package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/services/customers"
	"github.com/GalaDe/finance-link-service/internal/services/linking"
	"github.com/GalaDe/finance-link-service/internal/services/transfer"
	"github.com/GalaDe/finance-link-service/internal/storage/memory"
)

type fakeLinker struct {
	LinkFunc func(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error)
}

func (f *fakeLinker) Link(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error) {
	return f.LinkFunc(ctx, req)
}

type fakeTokens struct{}

func (fakeTokens) CreateLinkToken(ctx context.Context, userID, clientName string) (string, error) {
	return "link-" + userID + "-" + clientName, nil
}

type fakeTransferrer struct {
	TransferFunc                func(ctx context.Context, req transfer.Request) (*transfer.Result, error)
	TransferBetweenAccountsFunc func(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*transfer.Result, error)
}

func (f *fakeTransferrer) Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	return f.TransferFunc(ctx, req)
}

func (f *fakeTransferrer) TransferBetweenAccounts(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*transfer.Result, error) {
	return f.TransferBetweenAccountsFunc(ctx, senderBankID, receiverShareableID, amount)
}

type fakeCustomers struct {
	RegisterFunc    func(ctx context.Context, params customers.SignUpParams) (*domain.User, error)
	GetUserInfoFunc func(ctx context.Context, userID string) (*domain.User, error)
}

func (f *fakeCustomers) Register(ctx context.Context, params customers.SignUpParams) (*domain.User, error) {
	return f.RegisterFunc(ctx, params)
}

func (f *fakeCustomers) GetUserInfo(ctx context.Context, userID string) (*domain.User, error) {
	return f.GetUserInfoFunc(ctx, userID)
}

type fakeVerifier struct {
	ok bool
}

func (f fakeVerifier) VerifyWebhook(ctx context.Context, body []byte, headers http.Header) (bool, error) {
	return f.ok, nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func newTestServer(s Services) http.Handler {
	if s.LinkTokens == nil {
		s.LinkTokens = fakeTokens{}
	}
	if s.Banks == nil {
		s.Banks = memory.New()
	}
	if s.Webhooks == nil {
		s.Webhooks = fakeVerifier{ok: true}
	}
	if s.ClientName == "" {
		s.ClientName = "Finance"
	}
	return RegisterRoutes(NewHttpServer(zap.NewNop(), s))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateLinkToken(t *testing.T) {
	h := newTestServer(Services{})

	rec := do(t, h, http.MethodPost, "/link/token", `{"user_id":"user-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"link_token":"link-user-1-Finance"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/link/token", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/link/token", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExchangePublicToken(t *testing.T) {
	var got linking.LinkRequest
	linker := &fakeLinker{LinkFunc: func(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error) {
		got = req
		return &linking.LinkResult{
			PublicTokenExchange: linking.ExchangeComplete,
			BankAccount: &domain.BankAccount{
				ID:               "doc-1",
				UserID:           req.UserID,
				AccessToken:      "access-sandbox-secret",
				FundingSourceURL: "https://api-sandbox.dwolla.com/funding-sources/fs-1",
			},
		}, nil
	}}
	custs := &fakeCustomers{GetUserInfoFunc: func(ctx context.Context, userID string) (*domain.User, error) {
		return &domain.User{UserID: userID, DwollaCustomerID: "cust-from-profile"}, nil
	}}
	h := newTestServer(Services{Linker: linker, Customers: custs})

	rec := do(t, h, http.MethodPost, "/link/exchange", `{"public_token":"public-1","user_id":"user-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-from-profile", got.DwollaCustomerID)
	assert.NotContains(t, rec.Body.String(), "access-sandbox-secret")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "complete", body["publicTokenExchange"])

	rec = do(t, h, http.MethodPost, "/link/exchange", `{"public_token":"public-1","user_id":"user-1","dwolla_customer_id":"cust-9"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-9", got.DwollaCustomerID)
}

func TestExchangePublicToken_Failures(t *testing.T) {
	custs := &fakeCustomers{GetUserInfoFunc: func(ctx context.Context, userID string) (*domain.User, error) {
		return nil, domain.ErrNotFound
	}}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"external", domain.NewStepError(linking.StepFundingSourceCreation, domain.ErrFundingSourceFailed, nil), http.StatusBadGateway},
		{"persist", domain.NewStepError(linking.StepPersistRecord, domain.ErrPersistFailed, nil), http.StatusInternalServerError},
		{"validation", domain.ErrValidationFailed, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linker := &fakeLinker{LinkFunc: func(ctx context.Context, req linking.LinkRequest) (*linking.LinkResult, error) {
				return nil, tt.err
			}}
			h := newTestServer(Services{Linker: linker, Customers: custs})

			rec := do(t, h, http.MethodPost, "/link/exchange", `{"public_token":"p","user_id":"u","dwolla_customer_id":"c"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"error":"linking failed"}`, rec.Body.String())
		})
	}

	t.Run("unregistered user", func(t *testing.T) {
		h := newTestServer(Services{Customers: custs})
		rec := do(t, h, http.MethodPost, "/link/exchange", `{"public_token":"p","user_id":"u"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateTransfer(t *testing.T) {
	var gotReq transfer.Request
	var gotSender string
	transfers := &fakeTransferrer{
		TransferFunc: func(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
			gotReq = req
			return &transfer.Result{TransferURL: "https://api-sandbox.dwolla.com/transfers/t-1"}, nil
		},
		TransferBetweenAccountsFunc: func(ctx context.Context, senderBankID, receiverShareableID string, amount decimal.Decimal) (*transfer.Result, error) {
			gotSender = senderBankID
			return nil, domain.ErrNotFound
		},
	}
	h := newTestServer(Services{Transfers: transfers})

	rec := do(t, h, http.MethodPost, "/transfers",
		`{"source_funding_source_url":"src","destination_funding_source_url":"dst","amount":"12.34"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"transfer_url":"https://api-sandbox.dwolla.com/transfers/t-1"}`, rec.Body.String())
	assert.Equal(t, "12.34", gotReq.Amount.StringFixed(2))

	rec = do(t, h, http.MethodPost, "/transfers", `{"sender_bank_id":"doc-1","receiver_shareable_id":"nope","amount":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "doc-1", gotSender)
	assert.JSONEq(t, `{"error":"transfer failed"}`, rec.Body.String())
}

func TestCustomers(t *testing.T) {
	custs := &fakeCustomers{
		RegisterFunc: func(ctx context.Context, params customers.SignUpParams) (*domain.User, error) {
			if params.State == "XX" {
				return nil, domain.ErrValidationFailed
			}
			return &domain.User{UserID: params.UserID, SSN: params.SSN, DwollaCustomerID: "cust-1"}, nil
		},
		GetUserInfoFunc: func(ctx context.Context, userID string) (*domain.User, error) {
			if userID == "user-1" {
				return &domain.User{UserID: "user-1", SSN: "1234"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}
	h := newTestServer(Services{Customers: custs})

	rec := do(t, h, http.MethodPost, "/customers", `{"userId":"user-1","state":"TX","ssn":"1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "1234")

	rec = do(t, h, http.MethodPost, "/customers", `{"userId":"user-1","state":"XX"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/users/user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "1234")

	rec = do(t, h, http.MethodGet, "/users/user-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBanks(t *testing.T) {
	repo := memory.New()
	created, err := repo.CreateBankAccount(context.Background(), domain.CreateBankAccountParams{
		UserID: "user-1", AccountID: "acc-1", AccessToken: "access-secret", ShareableID: "share-1",
	})
	require.NoError(t, err)
	h := newTestServer(Services{Banks: repo})

	rec := do(t, h, http.MethodGet, "/banks?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)
	assert.NotContains(t, rec.Body.String(), "access-secret")

	rec = do(t, h, http.MethodGet, "/banks", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/banks/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/banks/account/acc-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/banks/account/acc-404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaidWebhook(t *testing.T) {
	body := `{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-1","error":{"error_code":"ITEM_LOGIN_REQUIRED"}}`

	rec := do(t, newTestServer(Services{Webhooks: fakeVerifier{ok: true}}), http.MethodPost, "/webhook/plaid", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestServer(Services{Webhooks: fakeVerifier{ok: false}}), http.MethodPost, "/webhook/plaid", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(Services{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","missing":[]}`, rec.Body.String())

	rec = do(t, newTestServer(Services{MissingConfig: []string{"DATABASE_URL"}}), http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"degraded","missing":["DATABASE_URL"]}`, rec.Body.String())
}

func TestHealth_DatabaseUnreachable(t *testing.T) {
	rec := do(t, newTestServer(Services{Store: fakePinger{err: errors.New("connection refused")}}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","missing":[]}`, rec.Body.String())

	rec = do(t, newTestServer(Services{Store: fakePinger{}}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
