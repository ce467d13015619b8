package domain

import (
	"time"

	"github.com/guregu/null"
)

// User is the profile record joining an auth user to a payment-network customer.
type User struct {
	ID                string      `json:"$id"`
	UserID            string      `json:"userId"`
	Email             string      `json:"email"`
	FirstName         string      `json:"firstName"`
	LastName          string      `json:"lastName"`
	Address1          string      `json:"address1"`
	Address2          null.String `json:"address2"`
	City              string      `json:"city"`
	State             string      `json:"state"`
	PostalCode        string      `json:"postalCode"`
	DateOfBirth       string      `json:"dateOfBirth"`
	SSN               string      `json:"-"`
	DwollaCustomerID  string      `json:"dwollaCustomerId"`
	DwollaCustomerURL string      `json:"dwollaCustomerUrl"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// BankAccount is the persisted linkage between a user and one aggregator account.
// AccessToken never leaves the server.
type BankAccount struct {
	ID               string    `json:"$id"`
	UserID           string    `json:"userId"`
	BankID           string    `json:"bankId"` // aggregator item id
	AccountID        string    `json:"accountId"`
	AccessToken      string    `json:"-"`
	FundingSourceURL string    `json:"fundingSourceUrl"`
	ShareableID      string    `json:"shareableId"`
	CreatedAt        time.Time `json:"createdAt"`
}

type CreateBankAccountParams struct {
	UserID           string
	BankID           string
	AccountID        string
	AccessToken      string
	FundingSourceURL string
	ShareableID      string
}
