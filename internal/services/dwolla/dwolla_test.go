package dwolla

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

type recordedRequest struct {
	Path string
	Body map[string]interface{}
}

type dwollaStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func (s *dwollaStub) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r.Path)
	}
	return out
}

func newDwollaStub(t *testing.T) (*dwollaStub, DwollaService) {
	stub := &dwollaStub{handlers: map[string]http.HandlerFunc{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			user, pass, ok := r.BasicAuth()
			if !ok {
				require.NoError(t, r.ParseForm())
				user, pass = r.Form.Get("client_id"), r.Form.Get("client_secret")
			}
			assert.Equal(t, "key", user)
			assert.Equal(t, "secret", pass)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"access_token":"app-token","token_type":"bearer","expires_in":3600}`)
			return
		}

		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		assert.Equal(t, halContentType, r.Header.Get("Accept"))

		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		stub.mu.Lock()
		stub.requests = append(stub.requests, recordedRequest{Path: r.URL.Path, Body: body})
		h, ok := stub.handlers[r.URL.Path]
		stub.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	return stub, New(&DwollaOpts{Key: "key", Secret: "secret", BaseURL: srv.URL}, zap.NewNop())
}

func created(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if location != "" {
			w.Header().Set("Location", location)
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func validCustomer() NewCustomer {
	return NewCustomer{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Address1:    "1 Market St",
		City:        "San Francisco",
		State:       "CA",
		PostalCode:  "94105",
		DateOfBirth: "1990-01-01",
		SSN:         "1234",
	}
}

func TestCreateCustomer(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/customers"] = created("https://api-sandbox.dwolla.com/customers/cust-1")

	location, err := svc.CreateCustomer(context.Background(), validCustomer())
	require.NoError(t, err)
	assert.Equal(t, "https://api-sandbox.dwolla.com/customers/cust-1", location)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "personal", stub.requests[0].Body["type"])
	assert.Equal(t, "CA", stub.requests[0].Body["state"])
}

func TestCreateCustomer_InvalidInputMakesNoCall(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		postalCode string
	}{
		{"unknown state", "ZZ", "00000"},
		{"empty state", "", "94105"},
		{"bad postal code", "CA", "9410"},
		{"postal code with letters", "CA", "ABCDE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, svc := newDwollaStub(t)
			stub.handlers["/customers"] = created("https://api-sandbox.dwolla.com/customers/cust-1")

			c := validCustomer()
			c.State, c.PostalCode = tt.state, tt.postalCode

			_, err := svc.CreateCustomer(context.Background(), c)
			assert.ErrorIs(t, err, domain.ErrValidationFailed)
			assert.Empty(t, stub.paths())
		})
	}
}

func TestCreateCustomer_NetworkFailure(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/customers"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"ValidationError","message":"Validation error(s) present."}`)
	}

	_, err := svc.CreateCustomer(context.Background(), validCustomer())
	assert.ErrorIs(t, err, domain.ErrNetworkCustomerFailed)
	assert.Contains(t, err.Error(), "ValidationError")
}

func TestAddFundingSource(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/on-demand-authorizations"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", halContentType)
		_, _ = io.WriteString(w, `{"_links":{"self":{"href":"https://api-sandbox.dwolla.com/on-demand-authorizations/auth-1"}},"bodyText":"I agree","buttonText":"Agree"}`)
	}
	stub.handlers["/customers/cust-1/funding-sources"] = created("https://api-sandbox.dwolla.com/funding-sources/fs-1")

	location, err := svc.AddFundingSource(context.Background(), AddFundingSourceParams{
		DwollaCustomerID: "cust-1",
		ProcessorToken:   "processor-sandbox-1",
		BankName:         "Plaid Checking",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://api-sandbox.dwolla.com/funding-sources/fs-1", location)

	assert.Equal(t, []string{"/on-demand-authorizations", "/customers/cust-1/funding-sources"}, stub.paths())
	body := stub.requests[1].Body
	assert.Equal(t, "Plaid Checking", body["name"])
	assert.Equal(t, "processor-sandbox-1", body["plaidToken"])
	assert.Equal(t, map[string]interface{}{
		"on-demand-authorization": map[string]interface{}{"href": "https://api-sandbox.dwolla.com/on-demand-authorizations/auth-1"},
	}, body["_links"])
}

func TestAddFundingSource_AuthorizationFails(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/on-demand-authorizations"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	_, err := svc.AddFundingSource(context.Background(), AddFundingSourceParams{DwollaCustomerID: "cust-1"})
	assert.ErrorIs(t, err, domain.ErrFundingSourceFailed)
	assert.ErrorIs(t, err, domain.ErrAuthorizationFailed)
	assert.Equal(t, []string{"/on-demand-authorizations"}, stub.paths())
}

func TestCreateFundingSource_NoLocation(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/customers/cust-1/funding-sources"] = created("")

	location, err := svc.CreateFundingSource(context.Background(), FundingSourceRequest{CustomerID: "cust-1"})
	require.NoError(t, err)
	assert.Empty(t, location)
}

func TestCreateTransfer(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/transfers"] = created("https://api-sandbox.dwolla.com/transfers/tr-1")

	location, err := svc.CreateTransfer(context.Background(), TransferParams{
		SourceFundingSourceURL:      "https://api-sandbox.dwolla.com/funding-sources/src",
		DestinationFundingSourceURL: "https://api-sandbox.dwolla.com/funding-sources/dst",
		Amount:                      decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://api-sandbox.dwolla.com/transfers/tr-1", location)

	body := stub.requests[0].Body
	assert.Equal(t, map[string]interface{}{"currency": "USD", "value": "12.50"}, body["amount"])
	links := body["_links"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"href": "https://api-sandbox.dwolla.com/funding-sources/src"}, links["source"])
	assert.Equal(t, map[string]interface{}{"href": "https://api-sandbox.dwolla.com/funding-sources/dst"}, links["destination"])
}

func TestCreateTransfer_Failed(t *testing.T) {
	stub, svc := newDwollaStub(t)
	stub.handlers["/transfers"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"InsufficientFunds","message":"Insufficient funds."}`)
	}

	_, err := svc.CreateTransfer(context.Background(), TransferParams{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
}

func TestUnconfiguredClient(t *testing.T) {
	svc := New(&DwollaOpts{}, zap.NewNop())

	_, err := svc.CreateCustomer(context.Background(), validCustomer())
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.ErrorIs(t, err, domain.ErrNetworkCustomerFailed)
}

func TestExtractCustomerID(t *testing.T) {
	assert.Equal(t, "cust-1", ExtractCustomerID("https://api-sandbox.dwolla.com/customers/cust-1"))
	assert.Equal(t, "cust-1", ExtractCustomerID("https://api-sandbox.dwolla.com/customers/cust-1/"))
	assert.Equal(t, "", ExtractCustomerID("https://api-sandbox.dwolla.com"))
	assert.Equal(t, "", ExtractCustomerID("::"))
}
