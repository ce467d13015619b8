package customers

import (
	"context"
	"errors"
	"testing"

	"github.com/guregu/null"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/metrics"
	"github.com/GalaDe/finance-link-service/internal/services/dwolla"
	"github.com/GalaDe/finance-link-service/internal/storage/memory"
	"github.com/GalaDe/finance-link-service/internal/storage/postgres"
)

type fakeNetwork struct {
	CreateCustomerFunc func(ctx context.Context, customer dwolla.NewCustomer) (string, error)
	calls              int
}

func (f *fakeNetwork) CreateCustomer(ctx context.Context, customer dwolla.NewCustomer) (string, error) {
	f.calls++
	return f.CreateCustomerFunc(ctx, customer)
}

// readFailingRepo fails every profile read.
type readFailingRepo struct {
	domain.Repository
	err error
}

func (r readFailingRepo) GetUserInfo(ctx context.Context, userID string) (*domain.User, error) {
	return nil, r.err
}

const customerURL = "https://api-sandbox.dwolla.com/customers/cust-123"

func okNetwork() *fakeNetwork {
	return &fakeNetwork{CreateCustomerFunc: func(ctx context.Context, customer dwolla.NewCustomer) (string, error) {
		return customerURL, nil
	}}
}

func validParams() SignUpParams {
	return SignUpParams{
		UserID:      "user-1",
		Email:       "jane@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Address1:    "1 Main St",
		Address2:    null.StringFrom("Apt 2"),
		City:        "Austin",
		State:       "TX",
		PostalCode:  "73301",
		DateOfBirth: "1990-01-01",
		SSN:         "1234",
	}
}

func TestRegister(t *testing.T) {
	network := okNetwork()
	var sent dwolla.NewCustomer
	network.CreateCustomerFunc = func(ctx context.Context, customer dwolla.NewCustomer) (string, error) {
		sent = customer
		return customerURL, nil
	}
	repo := memory.New()
	m := metrics.NewNop()
	svc := New(network, repo, postgres.NoopTransactor{}, m, zap.NewNop())

	user, err := svc.Register(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, "cust-123", user.DwollaCustomerID)
	assert.Equal(t, customerURL, user.DwollaCustomerURL)
	assert.Equal(t, "Apt 2", user.Address2.String)
	assert.Equal(t, dwolla.CustomerTypePersonal, sent.Type)
	assert.Equal(t, "TX", sent.State)

	stored, err := svc.GetUserInfo(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CustomersRegistered.WithLabelValues(metrics.OutcomeComplete)))
}

func TestRegister_Duplicate(t *testing.T) {
	network := okNetwork()
	repo := memory.New()
	svc := New(network, repo, postgres.NoopTransactor{}, metrics.NewNop(), zap.NewNop())

	_, err := svc.Register(context.Background(), validParams())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validParams())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 1, network.calls)
	assert.Len(t, repo.Users(), 1)
}

func TestRegister_Failures(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		network := okNetwork()
		svc := New(network, memory.New(), postgres.NoopTransactor{}, metrics.NewNop(), zap.NewNop())

		p := validParams()
		p.Email = ""
		_, err := svc.Register(context.Background(), p)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		assert.Zero(t, network.calls)
	})

	t.Run("network rejects customer", func(t *testing.T) {
		network := &fakeNetwork{CreateCustomerFunc: func(ctx context.Context, customer dwolla.NewCustomer) (string, error) {
			return "", domain.ErrNetworkCustomerFailed
		}}
		repo := memory.New()
		svc := New(network, repo, postgres.NoopTransactor{}, metrics.NewNop(), zap.NewNop())

		_, err := svc.Register(context.Background(), validParams())
		assert.ErrorIs(t, err, domain.ErrNetworkCustomerFailed)
		assert.Empty(t, repo.Users())
	})

	t.Run("store unavailable", func(t *testing.T) {
		network := okNetwork()
		svc := New(network, postgres.NewUnconfiguredRepo(zap.NewNop()), postgres.NoopTransactor{}, metrics.NewNop(), zap.NewNop())

		_, err := svc.Register(context.Background(), validParams())
		assert.ErrorIs(t, err, domain.ErrPersistFailed)
		assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
		assert.Equal(t, 1, network.calls)
	})

	t.Run("existing user check fails", func(t *testing.T) {
		network := okNetwork()
		repo := memory.New()
		m := metrics.NewNop()
		svc := New(network, readFailingRepo{Repository: repo, err: errors.New("connection refused")},
			postgres.NoopTransactor{}, m, zap.NewNop())

		_, err := svc.Register(context.Background(), validParams())
		assert.ErrorIs(t, err, domain.ErrPersistFailed)
		assert.ErrorContains(t, err, "connection refused")
		assert.Zero(t, network.calls)
		assert.Empty(t, repo.Users())
		assert.Equal(t, float64(1), testutil.ToFloat64(m.CustomersRegistered.WithLabelValues("persist_failed")))
	})

	t.Run("write error", func(t *testing.T) {
		repo := memory.New()
		repo.CreateUserErr = errors.New("disk full")
		svc := New(okNetwork(), repo, postgres.NoopTransactor{}, metrics.NewNop(), zap.NewNop())

		_, err := svc.Register(context.Background(), validParams())
		assert.ErrorIs(t, err, domain.ErrPersistFailed)
	})
}

func TestGetUserInfo_NotFound(t *testing.T) {
	svc := New(okNetwork(), memory.New(), postgres.NoopTransactor{}, metrics.NewNop(), zap.NewNop())

	_, err := svc.GetUserInfo(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
