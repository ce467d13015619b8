package dwolla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/utils"
)

const (
	SandboxURL    = "https://api-sandbox.dwolla.com"
	ProductionURL = "https://api.dwolla.com"

	CustomerTypePersonal = "personal"
	Currency             = "USD"

	halContentType = "application/vnd.dwolla.v1.hal+json"
)

type Dwolla struct {
	baseURL    string
	httpClient *http.Client
	configured bool
	logger     *zap.Logger
}

// DwollaService wraps the payment-network calls. None of them attach an
// idempotency key, so a retried call may create a duplicate resource.
type DwollaService interface {
	CreateCustomer(ctx context.Context, customer NewCustomer) (string, error)
	CreateOnDemandAuthorization(ctx context.Context) (AuthorizationLinks, error)
	CreateFundingSource(ctx context.Context, req FundingSourceRequest) (string, error)
	AddFundingSource(ctx context.Context, params AddFundingSourceParams) (string, error)
	CreateTransfer(ctx context.Context, params TransferParams) (string, error)
}

func New(opts *DwollaOpts, logger *zap.Logger) DwollaService {
	baseURL := SandboxURL
	if strings.EqualFold(opts.Environment, "production") {
		baseURL = ProductionURL
	}
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		cc := &clientcredentials.Config{
			ClientID:     opts.Key,
			ClientSecret: opts.Secret,
			TokenURL:     baseURL + "/token",
		}
		httpClient = cc.Client(context.Background())
	}

	return &Dwolla{
		baseURL:    baseURL,
		httpClient: httpClient,
		configured: opts.Key != "" && opts.Secret != "",
		logger:     logger,
	}
}

// CreateCustomer validates the address locally, then creates a personal
// customer and returns its URL. Invalid input never reaches the network.
func (d *Dwolla) CreateCustomer(ctx context.Context, customer NewCustomer) (string, error) {
	if err := utils.ValidateAddress(customer.State, customer.PostalCode); err != nil {
		return "", err
	}
	if customer.Type == "" {
		customer.Type = CustomerTypePersonal
	}

	resp, _, err := d.post(ctx, "customers", customer)
	if err != nil {
		d.logger.Error("creating a dwolla customer failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrNetworkCustomerFailed, err)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: response has no location", domain.ErrNetworkCustomerFailed)
	}
	return location, nil
}

func (d *Dwolla) CreateOnDemandAuthorization(ctx context.Context) (AuthorizationLinks, error) {
	_, body, err := d.post(ctx, "on-demand-authorizations", nil)
	if err != nil {
		d.logger.Error("creating an on-demand authorization failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthorizationFailed, err)
	}

	var out struct {
		Links AuthorizationLinks `json:"_links"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrAuthorizationFailed, err)
	}
	if out.Links["self"].Href == "" {
		return nil, fmt.Errorf("%w: response has no self link", domain.ErrAuthorizationFailed)
	}
	return out.Links, nil
}

// CreateFundingSource attaches a processor token to a customer. An empty
// string with a nil error means the network answered without a Location.
func (d *Dwolla) CreateFundingSource(ctx context.Context, req FundingSourceRequest) (string, error) {
	body := fundingSourceBody{
		Name:       req.FundingSourceName,
		PlaidToken: req.PlaidToken,
	}
	if self, ok := req.Links["self"]; ok {
		body.Links = map[string]Link{"on-demand-authorization": self}
	}

	resp, _, err := d.post(ctx, "customers/"+url.PathEscape(req.CustomerID)+"/funding-sources", body)
	if err != nil {
		d.logger.Error("creating a funding source failed", zap.String("customer_id", req.CustomerID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrFundingSourceFailed, err)
	}
	return resp.Header.Get("Location"), nil
}

// AddFundingSource obtains an on-demand authorization and then creates the
// funding source labelled with the bank name.
func (d *Dwolla) AddFundingSource(ctx context.Context, params AddFundingSourceParams) (string, error) {
	links, err := d.CreateOnDemandAuthorization(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrFundingSourceFailed, err)
	}

	return d.CreateFundingSource(ctx, FundingSourceRequest{
		CustomerID:        params.DwollaCustomerID,
		FundingSourceName: params.BankName,
		PlaidToken:        params.ProcessorToken,
		Links:             links,
	})
}

// CreateTransfer moves Amount (USD, two decimal places) between two funding sources.
func (d *Dwolla) CreateTransfer(ctx context.Context, params TransferParams) (string, error) {
	body := transferBody{
		Links: map[string]Link{
			"source":      {Href: params.SourceFundingSourceURL},
			"destination": {Href: params.DestinationFundingSourceURL},
		},
		Amount: amount{
			Currency: Currency,
			Value:    params.Amount.StringFixed(2),
		},
	}

	resp, _, err := d.post(ctx, "transfers", body)
	if err != nil {
		d.logger.Error("transfer fund failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: response has no location", domain.ErrTransferFailed)
	}
	return location, nil
}

// ExtractCustomerID returns the trailing id segment of a customer URL.
func ExtractCustomerID(customerURL string) string {
	u, err := url.Parse(customerURL)
	if err != nil || u.Path == "" {
		return ""
	}
	id := path.Base(strings.TrimRight(u.Path, "/"))
	if id == "." || id == "/" {
		return ""
	}
	return id
}

func (d *Dwolla) post(ctx context.Context, resource string, payload interface{}) (*http.Response, []byte, error) {
	if !d.configured {
		return nil, nil, fmt.Errorf("%w: DWOLLA_KEY and DWOLLA_SECRET are required", domain.ErrConfigurationMissing)
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/"+resource, reqBody)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", halContentType)
	req.Header.Set("Content-Type", halContentType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var herr halError
		if json.Unmarshal(body, &herr) == nil && herr.Code != "" {
			return nil, nil, fmt.Errorf("%s %s: status=%s code=%s: %s", http.MethodPost, resource, resp.Status, herr.Code, herr.Message)
		}
		return nil, nil, fmt.Errorf("%s %s: status=%s", http.MethodPost, resource, resp.Status)
	}
	return resp, body, nil
}
