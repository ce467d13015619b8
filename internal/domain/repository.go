package domain

import "context"

// Repository is the backing store for user profiles and bank-account records.
// Lookups that match nothing return ErrNotFound.
type Repository interface {
	GetUserInfo(ctx context.Context, userID string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)

	CreateBankAccount(ctx context.Context, params CreateBankAccountParams) (*BankAccount, error)
	GetBanks(ctx context.Context, userID string) ([]*BankAccount, error)
	GetBank(ctx context.Context, documentID string) (*BankAccount, error)
	GetBankByAccountID(ctx context.Context, accountID string) (*BankAccount, error)
	GetBankByShareableID(ctx context.Context, shareableID string) (*BankAccount, error)
}
