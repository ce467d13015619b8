package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/gobuffalo/nulls"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/utils"
)

const (
	usersTable        = "users"
	bankAccountsTable = "bank_accounts"

	uniqueViolation = "23505"
)

var (
	userColumns = []string{
		"id", "user_id", "email", "first_name", "last_name", "address1", "address2", "city",
		"state", "postal_code", "date_of_birth", "ssn", "dwolla_customer_id", "dwolla_customer_url", "created_at",
	}
	bankAccountColumns = []string{
		"id", "user_id", "bank_id", "account_id", "access_token", "funding_source_url", "shareable_id", "created_at",
	}
)

type postgresRepo struct {
	tx      *PostgresTransactor
	builder squirrel.StatementBuilderType
}

func NewPostgresRepo(tx *PostgresTransactor) domain.Repository {
	return &postgresRepo{tx: tx, builder: tx.conn.Builder}
}

func (p *postgresRepo) GetUserInfo(ctx context.Context, userID string) (*domain.User, error) {
	sql, args, err := selectUserQuery(p.builder, userID)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(p.tx.WithQtx(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err, "user %s", userID)
	}
	return user, nil
}

func (p *postgresRepo) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	created.ID = uuid.NewString()

	sql, args, err := insertUserQuery(p.builder, &created)
	if err != nil {
		return nil, err
	}
	if err := p.tx.WithQtx(ctx).QueryRow(ctx, sql, args...).Scan(&created.CreatedAt); err != nil {
		return nil, writeErr(err, "insert user %s", user.UserID)
	}
	return &created, nil
}

func (p *postgresRepo) CreateBankAccount(ctx context.Context, params domain.CreateBankAccountParams) (*domain.BankAccount, error) {
	account := &domain.BankAccount{
		ID:               uuid.NewString(),
		UserID:           params.UserID,
		BankID:           params.BankID,
		AccountID:        params.AccountID,
		AccessToken:      params.AccessToken,
		FundingSourceURL: params.FundingSourceURL,
		ShareableID:      params.ShareableID,
	}

	sql, args, err := insertBankAccountQuery(p.builder, account)
	if err != nil {
		return nil, err
	}
	if err := p.tx.WithQtx(ctx).QueryRow(ctx, sql, args...).Scan(&account.CreatedAt); err != nil {
		return nil, writeErr(err, "insert bank account for user %s", params.UserID)
	}
	return account, nil
}

func (p *postgresRepo) GetBanks(ctx context.Context, userID string) ([]*domain.BankAccount, error) {
	return p.listBankAccounts(ctx, squirrel.Eq{"user_id": userID}, 0)
}

func (p *postgresRepo) GetBank(ctx context.Context, documentID string) (*domain.BankAccount, error) {
	return p.singleBankAccount(ctx, squirrel.Eq{"id": documentID})
}

// GetBankByAccountID only answers when exactly one record carries accountID.
func (p *postgresRepo) GetBankByAccountID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	return p.singleBankAccount(ctx, squirrel.Eq{"account_id": accountID})
}

func (p *postgresRepo) GetBankByShareableID(ctx context.Context, shareableID string) (*domain.BankAccount, error) {
	return p.singleBankAccount(ctx, squirrel.Eq{"shareable_id": shareableID})
}

func (p *postgresRepo) singleBankAccount(ctx context.Context, where squirrel.Eq) (*domain.BankAccount, error) {
	accounts, err := p.listBankAccounts(ctx, where, 2)
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		return nil, fmt.Errorf("bank account %v: %w", where, domain.ErrNotFound)
	}
	return accounts[0], nil
}

func (p *postgresRepo) listBankAccounts(ctx context.Context, where squirrel.Eq, limit uint64) ([]*domain.BankAccount, error) {
	sql, args, err := selectBankAccountsQuery(p.builder, where, limit)
	if err != nil {
		return nil, err
	}

	rows, err := p.tx.WithQtx(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.BankAccount, 0)
	for rows.Next() {
		var a domain.BankAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.BankID, &a.AccountID, &a.AccessToken,
			&a.FundingSourceURL, &a.ShareableID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

func selectUserQuery(b squirrel.StatementBuilderType, userID string) (string, []interface{}, error) {
	return b.Select(userColumns...).
		From(usersTable).
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
}

func insertUserQuery(b squirrel.StatementBuilderType, u *domain.User) (string, []interface{}, error) {
	return b.Insert(usersTable).
		Columns(userColumns[:len(userColumns)-1]...).
		Values(u.ID, u.UserID, u.Email, u.FirstName, u.LastName, u.Address1, utils.NullToNullsString(u.Address2),
			u.City, u.State, u.PostalCode, u.DateOfBirth, u.SSN, u.DwollaCustomerID, u.DwollaCustomerURL).
		Suffix("RETURNING created_at").
		ToSql()
}

func insertBankAccountQuery(b squirrel.StatementBuilderType, a *domain.BankAccount) (string, []interface{}, error) {
	return b.Insert(bankAccountsTable).
		Columns(bankAccountColumns[:len(bankAccountColumns)-1]...).
		Values(a.ID, a.UserID, a.BankID, a.AccountID, a.AccessToken, a.FundingSourceURL, a.ShareableID).
		Suffix("RETURNING created_at").
		ToSql()
}

func selectBankAccountsQuery(b squirrel.StatementBuilderType, where squirrel.Eq, limit uint64) (string, []interface{}, error) {
	q := b.Select(bankAccountColumns...).
		From(bankAccountsTable).
		Where(where).
		OrderBy("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.ToSql()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		address2 nulls.String
	)
	err := row.Scan(&u.ID, &u.UserID, &u.Email, &u.FirstName, &u.LastName, &u.Address1, &address2, &u.City,
		&u.State, &u.PostalCode, &u.DateOfBirth, &u.SSN, &u.DwollaCustomerID, &u.DwollaCustomerURL, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Address2 = utils.NullsStringToNull(address2)
	return &u, nil
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func writeErr(err error, format string, args ...interface{}) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
