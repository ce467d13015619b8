package dwolla

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type DwollaOpts struct {
	Key         string `json:"key"`
	Secret      string `json:"secret"`
	Environment string `json:"environment"`

	// BaseURL overrides Environment when set.
	BaseURL    string       `json:"baseURL"`
	HTTPClient *http.Client `json:"-"`
}

// NewCustomer is the verified personal customer payload.
type NewCustomer struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Type        string `json:"type"`
	Address1    string `json:"address1"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn"`
}

type Link struct {
	Href string `json:"href"`
}

// AuthorizationLinks are the HAL links of an on-demand authorization.
type AuthorizationLinks map[string]Link

type FundingSourceRequest struct {
	CustomerID        string
	FundingSourceName string
	PlaidToken        string
	Links             AuthorizationLinks
}

type AddFundingSourceParams struct {
	DwollaCustomerID string
	ProcessorToken   string
	BankName         string
}

type TransferParams struct {
	SourceFundingSourceURL      string
	DestinationFundingSourceURL string
	Amount                      decimal.Decimal
}

type fundingSourceBody struct {
	Name       string          `json:"name"`
	PlaidToken string          `json:"plaidToken"`
	Links      map[string]Link `json:"_links,omitempty"`
}

type amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type transferBody struct {
	Links  map[string]Link `json:"_links"`
	Amount amount          `json:"amount"`
}

type halError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
