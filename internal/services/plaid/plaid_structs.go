package plaid

import "net/http"

type PlaidOpts struct {
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"secret"`
	Environment  string `json:"environment"`

	// BaseURL overrides Environment when set.
	BaseURL    string       `json:"baseURL"`
	HTTPClient *http.Client `json:"-"`
}

type ExchangeTokenResponse struct {
	AccessToken string `json:"-"`
	ItemID      string `json:"item_id"`
}

type Account struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Mask      string `json:"mask"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
}
