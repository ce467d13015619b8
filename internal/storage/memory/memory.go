package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GalaDe/finance-link-service/internal/domain"
)

// Repository is an in-memory domain.Repository for tests. Setting one of the
// *Err fields makes the matching write fail.
type Repository struct {
	mu    sync.Mutex
	users []*domain.User
	banks []*domain.BankAccount

	CreateUserErr        error
	CreateBankAccountErr error

	Calls map[string]int
}

var _ domain.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{Calls: map[string]int{}}
}

func (r *Repository) called(op string) {
	r.Calls[op]++
}

func (r *Repository) GetUserInfo(ctx context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.called("GetUserInfo")

	for _, u := range r.users {
		if u.UserID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.called("CreateUser")

	if r.CreateUserErr != nil {
		return nil, r.CreateUserErr
	}
	for _, u := range r.users {
		if u.UserID == user.UserID {
			return nil, fmt.Errorf("user %s: %w", user.UserID, domain.ErrDuplicate)
		}
	}
	cp := *user
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().UTC()
	r.users = append(r.users, &cp)
	out := cp
	return &out, nil
}

func (r *Repository) CreateBankAccount(ctx context.Context, params domain.CreateBankAccountParams) (*domain.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.called("CreateBankAccount")

	if r.CreateBankAccountErr != nil {
		return nil, r.CreateBankAccountErr
	}
	a := &domain.BankAccount{
		ID:               uuid.NewString(),
		UserID:           params.UserID,
		BankID:           params.BankID,
		AccountID:        params.AccountID,
		AccessToken:      params.AccessToken,
		FundingSourceURL: params.FundingSourceURL,
		ShareableID:      params.ShareableID,
		CreatedAt:        time.Now().UTC(),
	}
	r.banks = append(r.banks, a)
	cp := *a
	return &cp, nil
}

func (r *Repository) GetBanks(ctx context.Context, userID string) ([]*domain.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.called("GetBanks")

	out := make([]*domain.BankAccount, 0)
	for _, b := range r.banks {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Repository) GetBank(ctx context.Context, documentID string) (*domain.BankAccount, error) {
	return r.single("GetBank", func(b *domain.BankAccount) bool { return b.ID == documentID })
}

func (r *Repository) GetBankByAccountID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	return r.single("GetBankByAccountID", func(b *domain.BankAccount) bool { return b.AccountID == accountID })
}

func (r *Repository) GetBankByShareableID(ctx context.Context, shareableID string) (*domain.BankAccount, error) {
	return r.single("GetBankByShareableID", func(b *domain.BankAccount) bool { return b.ShareableID == shareableID })
}

func (r *Repository) single(op string, match func(*domain.BankAccount) bool) (*domain.BankAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.called(op)

	var found []*domain.BankAccount
	for _, b := range r.banks {
		if match(b) {
			found = append(found, b)
		}
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	cp := *found[0]
	return &cp, nil
}

// Banks returns every stored bank account record.
func (r *Repository) Banks() []*domain.BankAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.BankAccount(nil), r.banks...)
}

// Users returns every stored user profile.
func (r *Repository) Users() []*domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.User(nil), r.users...)
}
