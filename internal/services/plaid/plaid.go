package plaid

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/plaid/plaid-go/v12/plaid"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

const (
	ProcessorDwolla = "dwolla"

	linkLanguage = "en"
)

type Plaid struct {
	client     *plaid.APIClient
	configured bool
	logger     *zap.Logger

	mu       sync.Mutex
	keyCache map[string]cachedKey
}

type PlaidService interface {
	CreateLinkToken(ctx context.Context, userID, clientName string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeTokenResponse, error)
	GetPrimaryAccount(ctx context.Context, accessToken string) (*Account, error)
	CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error)
	VerifyWebhook(ctx context.Context, body []byte, headers http.Header) (bool, error)
}

func New(opts *PlaidOpts, logger *zap.Logger) PlaidService {
	config := plaid.NewConfiguration()
	config.AddDefaultHeader("PLAID-CLIENT-ID", opts.ClientID)
	config.AddDefaultHeader("PLAID-SECRET", opts.ClientSecret)
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}

	switch {
	case opts.BaseURL != "":
		config.UseEnvironment(plaid.Environment(opts.BaseURL))
	case opts.Environment == "production":
		config.UseEnvironment(plaid.Production)
	case opts.Environment == "development":
		config.UseEnvironment(plaid.Development)
	default:
		config.UseEnvironment(plaid.Sandbox)
	}

	return &Plaid{
		client:     plaid.NewAPIClient(config),
		configured: opts.ClientID != "" && opts.ClientSecret != "",
		logger:     logger,
		keyCache:   make(map[string]cachedKey),
	}
}

func (p *Plaid) requireConfigured(kind error) error {
	if p.configured {
		return nil
	}
	return fmt.Errorf("%w: %w: PLAID_CLIENT_ID and PLAID_SECRET are required", kind, domain.ErrConfigurationMissing)
}

// CreateLinkToken generates a new Plaid Link token for the specified user ID.
// The link token is used by the frontend to initialize the Plaid Link widget.
// Scope is fixed to the auth product, English and US institutions.
func (p *Plaid) CreateLinkToken(ctx context.Context, userID, clientName string) (string, error) {
	if err := p.requireConfigured(domain.ErrAggregatorUnavailable); err != nil {
		return "", err
	}
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: userID,
	}

	req := plaid.NewLinkTokenCreateRequest(
		clientName,
		linkLanguage,
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		user,
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_AUTH})

	res, _, err := p.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		p.logger.Error("create link token failed", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrAggregatorUnavailable, err)
	}

	return res.GetLinkToken(), nil
}

// ExchangePublicToken exchanges the short-lived public_token returned by Plaid Link
// for a long-lived access_token and item_id.
func (p *Plaid) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeTokenResponse, error) {
	if err := p.requireConfigured(domain.ErrExchangeFailed); err != nil {
		return nil, err
	}
	exchangeReq := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	res, _, err := p.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*exchangeReq).Execute()
	if err != nil {
		p.logger.Error("public token exchange failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrExchangeFailed, err)
	}

	return &ExchangeTokenResponse{
		AccessToken: res.GetAccessToken(),
		ItemID:      res.GetItemId(),
	}, nil
}

// GetPrimaryAccount returns the first account under the item in API order.
// No ranking by account type is applied.
func (p *Plaid) GetPrimaryAccount(ctx context.Context, accessToken string) (*Account, error) {
	if err := p.requireConfigured(domain.ErrAccountFetchFailed); err != nil {
		return nil, err
	}
	accountRequest := plaid.NewAccountsGetRequest(accessToken)
	accountsGetResp, _, err := p.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*accountRequest).Execute()
	if err != nil {
		p.logger.Error("accounts get failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrAccountFetchFailed, err)
	}

	accounts := accountsGetResp.GetAccounts()
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts found for access token", domain.ErrAccountFetchFailed)
	}

	first := accounts[0]
	account := &Account{
		AccountID: first.GetAccountId(),
		Name:      first.GetName(),
		Type:      string(first.GetType()),
	}
	if mask := first.Mask.Get(); mask != nil {
		account.Mask = *mask
	}
	if subtype := first.Subtype.Get(); subtype != nil {
		account.Subtype = string(*subtype)
	}

	return account, nil
}

// CreateProcessorToken binds an account to a downstream payment processor.
// The returned token is single use.
func (p *Plaid) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (string, error) {
	if err := p.requireConfigured(domain.ErrProcessorTokenFailed); err != nil {
		return "", err
	}
	request := plaid.NewProcessorTokenCreateRequest(accessToken, accountID, processor)
	processorTokenCreateResp, _, err := p.client.PlaidApi.ProcessorTokenCreate(ctx).ProcessorTokenCreateRequest(*request).Execute()
	if err != nil {
		p.logger.Error("processor token create failed", zap.String("account_id", accountID), zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrProcessorTokenFailed, err)
	}
	return processorTokenCreateResp.GetProcessorToken(), nil
}
