package subscription

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/rafael-fxs/locadora-ppm/model"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		tier    Tier
		want    Effects
		wantErr bool
	}{
		{TierBasic, Effects{DiscountPercent: 10, ExtraDays: 3, WaivesLateFee: false}, false},
		{TierPremium, Effects{DiscountPercent: 20, ExtraDays: 7, WaivesLateFee: true}, false},
		{Tier("GOLD"), Effects{}, true},
		{Tier("basic"), Effects{}, true},
		{Tier(""), Effects{}, true},
	}
	for _, tt := range testCases {
		got, err := Resolve(tt.tier)
		if tt.wantErr {
			if err != ErrInvalidTier {
				t.Fatalf("Resolve(%q) err = %v; want ErrInvalidTier", tt.tier, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Resolve(%q) unexpected error: %v", tt.tier, err)
		}
		if got != tt.want {
			t.Fatalf("Resolve(%q) = %+v; want %+v", tt.tier, got, tt.want)
		}
	}
}

// --- Register ---

type fakeTx struct {
	pgx.Tx
	committed *bool
}

func (t fakeTx) Commit(ctx context.Context) error {
	if t.committed != nil {
		*t.committed = true
	}
	return nil
}
func (t fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct{ committed *bool }

func (d fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return fakeTx{committed: d.committed}, nil
}

type customerRepoMock struct {
	lockFn func(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error)
	setFn  func(ctx context.Context, tx pgx.Tx, customerID, subscriptionID int64) error
}

func (m *customerRepoMock) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
	return m.lockFn(ctx, tx, id)
}
func (m *customerRepoMock) SetSubscription(ctx context.Context, tx pgx.Tx, customerID, subscriptionID int64) error {
	return m.setFn(ctx, tx, customerID, subscriptionID)
}

type subsRepoMock struct {
	insertFn func(ctx context.Context, tx pgx.Tx, s *model.Subscription) error
}

func (m *subsRepoMock) Insert(ctx context.Context, tx pgx.Tx, s *model.Subscription) error {
	return m.insertFn(ctx, tx, s)
}

func TestRegister_Premium(t *testing.T) {
	committed := false
	var linkedCustomer, linkedSub int64

	cr := &customerRepoMock{
		lockFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
			return &model.Customer{ID: id, Name: "Ana", Age: 30}, nil
		},
		setFn: func(ctx context.Context, tx pgx.Tx, customerID, subscriptionID int64) error {
			linkedCustomer, linkedSub = customerID, subscriptionID
			return nil
		},
	}
	sr := &subsRepoMock{
		insertFn: func(ctx context.Context, tx pgx.Tx, s *model.Subscription) error {
			s.ID = 55
			return nil
		},
	}
	s := New(fakeDB{committed: &committed}, cr, sr)

	sub, err := s.Register(context.Background(), 1, TierPremium)
	require.NoError(t, err)
	require.Equal(t, int64(55), sub.ID)
	require.Equal(t, "PREMIUM", sub.Tier)
	require.InDelta(t, 20.0, sub.DiscountPercent, 1e-9)
	require.Equal(t, 7, sub.ExtraDays)
	require.True(t, sub.WaivesLateFee)
	require.Equal(t, int64(1), linkedCustomer)
	require.Equal(t, int64(55), linkedSub)
	require.True(t, committed, "register must commit the subscription and the link together")
}

func TestRegister_InvalidTier(t *testing.T) {
	locked := false
	cr := &customerRepoMock{
		lockFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
			locked = true
			return &model.Customer{ID: id}, nil
		},
	}
	s := New(fakeDB{}, cr, &subsRepoMock{})

	_, err := s.Register(context.Background(), 1, Tier("GOLD"))
	require.ErrorIs(t, err, ErrInvalidTier)
	require.False(t, locked, "invalid tier must fail before touching the store")
}

func TestRegister_CustomerNotFound(t *testing.T) {
	cr := &customerRepoMock{
		lockFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
			return nil, pgx.ErrNoRows
		},
	}
	s := New(fakeDB{}, cr, &subsRepoMock{})

	_, err := s.Register(context.Background(), 99, TierBasic)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}
