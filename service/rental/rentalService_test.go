package rental

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/rafael-fxs/locadora-ppm/model"
)

// --- fakes ---

// fakeTx satisfies pgx.Tx; only Commit/Rollback are ever reached because the
// repo mock below never touches the tx.
type fakeTx struct {
	pgx.Tx
	commit   func() error
	rollback func() error
}

func (t fakeTx) Commit(ctx context.Context) error {
	if t.commit != nil {
		return t.commit()
	}
	return nil
}

func (t fakeTx) Rollback(ctx context.Context) error {
	if t.rollback != nil {
		return t.rollback()
	}
	return nil
}

type fakeDB struct {
	begin func(ctx context.Context) (pgx.Tx, error)
}

func (d fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if d.begin != nil {
		return d.begin(ctx)
	}
	return fakeTx{}, nil
}

type repoMock struct {
	getCustomerFn     func(ctx context.Context, id int64) (*model.Customer, error)
	getSubscriptionFn func(ctx context.Context, id int64) (*model.Subscription, error)
	lockGameFn        func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error)
	decrementStockFn  func(ctx context.Context, tx pgx.Tx, id int64) error
	incrementStockFn  func(ctx context.Context, tx pgx.Tx, id int64) error
	insertRentalFn    func(ctx context.Context, tx pgx.Tx, r *model.Rental) error
	lockOutstandingFn func(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error)
	markReturnedFn    func(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error
	listByCustomerFn  func(ctx context.Context, customerID int64) ([]HistoryRow, error)
	listOverdueFn     func(ctx context.Context, asOf time.Time) ([]OverdueRow, error)
}

var _ Repo = (*repoMock)(nil)

func (m *repoMock) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return m.getCustomerFn(ctx, id)
}
func (m *repoMock) GetSubscription(ctx context.Context, id int64) (*model.Subscription, error) {
	return m.getSubscriptionFn(ctx, id)
}
func (m *repoMock) LockGame(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
	return m.lockGameFn(ctx, tx, id)
}
func (m *repoMock) DecrementStock(ctx context.Context, tx pgx.Tx, id int64) error {
	return m.decrementStockFn(ctx, tx, id)
}
func (m *repoMock) IncrementStock(ctx context.Context, tx pgx.Tx, id int64) error {
	return m.incrementStockFn(ctx, tx, id)
}
func (m *repoMock) InsertRental(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
	return m.insertRentalFn(ctx, tx, r)
}
func (m *repoMock) LockOutstanding(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error) {
	return m.lockOutstandingFn(ctx, tx, customerID, gameID)
}
func (m *repoMock) MarkReturned(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error {
	return m.markReturnedFn(ctx, tx, rentalID, returnedAt, lateFee)
}
func (m *repoMock) ListByCustomer(ctx context.Context, customerID int64) ([]HistoryRow, error) {
	return m.listByCustomerFn(ctx, customerID)
}
func (m *repoMock) ListOverdue(ctx context.Context, asOf time.Time) ([]OverdueRow, error) {
	return m.listOverdueFn(ctx, asOf)
}

func subID(id int64) *int64 { return &id }

func adult() *model.Customer {
	return &model.Customer{ID: 1, Name: "Ana", Age: 30}
}

func gameInStock() *model.Game {
	return &model.Game{ID: 7, Title: "Portal", Platform: "PC", MinAge: 10, Stock: 3, Price: 100, Discount: 10}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- Rent ---

func TestRent_CustomerNotFound(t *testing.T) {
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) {
			return nil, pgx.ErrNoRows
		},
	}
	s := New(fakeDB{}, m)

	_, err := s.Rent(context.Background(), 99, 7)
	require.Equal(t, ErrCustomerNotFound, Code(err))
}

func TestRent_GameNotFound(t *testing.T) {
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return nil, pgx.ErrNoRows
		},
	}
	s := New(fakeDB{}, m)

	_, err := s.Rent(context.Background(), 1, 99)
	require.Equal(t, ErrGameNotFound, Code(err))
}

func TestRent_AgeRestricted(t *testing.T) {
	g := gameInStock()
	g.MinAge = 18

	for _, tt := range []struct {
		age     int
		wantErr bool
	}{
		{17, true},
		{18, false},
	} {
		m := &repoMock{
			getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) {
				return &model.Customer{ID: 1, Age: tt.age}, nil
			},
			lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
				cp := *g
				return &cp, nil
			},
			decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
			insertRentalFn:   func(ctx context.Context, tx pgx.Tx, r *model.Rental) error { return nil },
		}
		s := New(fakeDB{}, m)

		_, err := s.Rent(context.Background(), 1, 7)
		if tt.wantErr {
			require.Equal(t, ErrAgeRestricted, Code(err), "age %d", tt.age)
		} else {
			require.NoError(t, err, "age %d", tt.age)
		}
	}
}

func TestRent_OutOfStock(t *testing.T) {
	g := gameInStock()
	g.Stock = 0

	decremented := false
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return g, nil
		},
		decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error {
			decremented = true
			return nil
		},
	}
	s := New(fakeDB{}, m)

	_, err := s.Rent(context.Background(), 1, 7)
	require.Equal(t, ErrOutOfStock, Code(err))
	require.False(t, decremented, "stock must not be touched on a failed rent")
}

func TestRent_PriceStacking(t *testing.T) {
	// game price 100, game discount 10% -> 90; PREMIUM 20% on top -> 72
	cust := adult()
	cust.SubscriptionID = subID(5)

	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return cust, nil },
		getSubscriptionFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return &model.Subscription{ID: 5, Tier: "PREMIUM", DiscountPercent: 20, ExtraDays: 7, WaivesLateFee: true}, nil
		},
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return gameInStock(), nil
		},
		decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
		insertRentalFn:   func(ctx context.Context, tx pgx.Tx, r *model.Rental) error { return nil },
	}
	s := New(fakeDB{}, m)

	out, err := s.Rent(context.Background(), 1, 7)
	require.NoError(t, err)
	require.InDelta(t, 72.0, out.Price, 1e-9)
}

func TestRent_DueDate(t *testing.T) {
	for _, tt := range []struct {
		name     string
		sub      *model.Subscription
		wantDays int
	}{
		{"no subscription", nil, 7},
		{"basic adds three days", &model.Subscription{ID: 5, Tier: "BASIC", DiscountPercent: 10, ExtraDays: 3}, 10},
		{"premium adds seven days", &model.Subscription{ID: 5, Tier: "PREMIUM", DiscountPercent: 20, ExtraDays: 7, WaivesLateFee: true}, 14},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cust := adult()
			if tt.sub != nil {
				cust.SubscriptionID = subID(tt.sub.ID)
			}
			m := &repoMock{
				getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return cust, nil },
				getSubscriptionFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
					return tt.sub, nil
				},
				lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
					return gameInStock(), nil
				},
				decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
				insertRentalFn:   func(ctx context.Context, tx pgx.Tx, r *model.Rental) error { return nil },
			}
			s := New(fakeDB{}, m)

			out, err := s.Rent(context.Background(), 1, 7)
			require.NoError(t, err)
			require.Equal(t, out.RentedAt.AddDate(0, 0, tt.wantDays), out.DueAt)
			require.Nil(t, out.ReturnedAt)
			require.Zero(t, out.LateFee)
		})
	}
}

func TestRent_NoPartialWriteOnInsertFailure(t *testing.T) {
	rolledBack := false
	committed := false
	db := fakeDB{begin: func(ctx context.Context) (pgx.Tx, error) {
		return fakeTx{
			commit:   func() error { committed = true; return nil },
			rollback: func() error { rolledBack = true; return nil },
		}, nil
	}}
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return gameInStock(), nil
		},
		decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
		insertRentalFn: func(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
			return context.DeadlineExceeded
		},
	}
	s := New(db, m)

	_, err := s.Rent(context.Background(), 1, 7)
	require.Error(t, err)
	require.True(t, rolledBack, "failed rent must roll back")
	require.False(t, committed)
}

func TestRent_RetriesOnceOnSerializationFailure(t *testing.T) {
	calls := 0
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			calls++
			if calls == 1 {
				return nil, &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
			}
			return gameInStock(), nil
		},
		decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
		insertRentalFn:   func(ctx context.Context, tx pgx.Tx, r *model.Rental) error { return nil },
	}
	s := New(fakeDB{}, m)

	_, err := s.Rent(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRent_SurfacesConflictAfterRetry(t *testing.T) {
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return nil, &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		},
	}
	s := New(fakeDB{}, m)

	_, err := s.Rent(context.Background(), 1, 7)
	require.Equal(t, ErrConflict, Code(err))
}

// --- Return ---

func outstandingRental(due time.Time) *model.Rental {
	return &model.Rental{
		ID:         11,
		CustomerID: 1,
		GameID:     7,
		RentedAt:   due.AddDate(0, 0, -7),
		DueAt:      due,
		Price:      90,
	}
}

func returnFixture(cust *model.Customer, sub *model.Subscription, due time.Time) (*repoMock, *float64) {
	var recordedFee float64
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return cust, nil },
		getSubscriptionFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return sub, nil
		},
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return gameInStock(), nil
		},
		lockOutstandingFn: func(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error) {
			return outstandingRental(due), nil
		},
		incrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
		markReturnedFn: func(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error {
			recordedFee = lateFee
			return nil
		},
	}
	return m, &recordedFee
}

func TestReturn_LateFee(t *testing.T) {
	due := date(2025, time.March, 10)

	for _, tt := range []struct {
		name       string
		sub        *model.Subscription
		returnedAt time.Time
		wantFee    float64
	}{
		{"three days late", nil, due.AddDate(0, 0, 3), 15},
		{"on due date", nil, due, 0},
		{"early return", nil, due.AddDate(0, 0, -2), 0},
		{"premium waives", &model.Subscription{ID: 5, Tier: "PREMIUM", WaivesLateFee: true}, due.AddDate(0, 0, 3), 0},
		{"basic still owes", &model.Subscription{ID: 5, Tier: "BASIC", WaivesLateFee: false}, due.AddDate(0, 0, 3), 15},
		{"premium on time", &model.Subscription{ID: 5, Tier: "PREMIUM", WaivesLateFee: true}, due, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cust := adult()
			if tt.sub != nil {
				cust.SubscriptionID = subID(tt.sub.ID)
			}
			m, recorded := returnFixture(cust, tt.sub, due)
			s := New(fakeDB{}, m)

			fee, err := s.Return(context.Background(), 1, 7, tt.returnedAt)
			require.NoError(t, err)
			require.InDelta(t, tt.wantFee, fee, 1e-9)
			require.InDelta(t, tt.wantFee, *recorded, 1e-9, "persisted fee must match returned fee")
		})
	}
}

func TestReturn_RentalNotFound(t *testing.T) {
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return gameInStock(), nil
		},
		lockOutstandingFn: func(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error) {
			return nil, pgx.ErrNoRows
		},
	}
	s := New(fakeDB{}, m)

	_, err := s.Return(context.Background(), 1, 7, date(2025, time.March, 13))
	require.Equal(t, ErrRentalNotFound, Code(err))
}

func TestReturn_SecondReturnFails(t *testing.T) {
	due := date(2025, time.March, 10)
	returned := false
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			return gameInStock(), nil
		},
		lockOutstandingFn: func(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error) {
			if returned {
				return nil, pgx.ErrNoRows
			}
			return outstandingRental(due), nil
		},
		incrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error { return nil },
		markReturnedFn: func(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error {
			returned = true
			return nil
		},
	}
	s := New(fakeDB{}, m)

	_, err := s.Return(context.Background(), 1, 7, due)
	require.NoError(t, err)

	_, err = s.Return(context.Background(), 1, 7, due)
	require.Equal(t, ErrRentalNotFound, Code(err))
}

// --- concurrency ---

// gameStore simulates the row lock the database grants on the game row: the
// lock is taken by LockGame and released on commit or rollback.
type gameStore struct {
	mu      sync.Mutex
	stock   int64
	rentals int
}

func (g *gameStore) tx() pgx.Tx {
	return fakeTx{
		commit:   func() error { g.mu.Unlock(); return nil },
		rollback: func() error { g.mu.Unlock(); return nil },
	}
}

func TestRent_ConcurrentLastCopy(t *testing.T) {
	store := &gameStore{stock: 1}

	db := fakeDB{begin: func(ctx context.Context) (pgx.Tx, error) { return store.tx(), nil }}
	m := &repoMock{
		getCustomerFn: func(ctx context.Context, id int64) (*model.Customer, error) { return adult(), nil },
		lockGameFn: func(ctx context.Context, tx pgx.Tx, id int64) (*model.Game, error) {
			store.mu.Lock()
			g := gameInStock()
			g.Stock = store.stock
			return g, nil
		},
		decrementStockFn: func(ctx context.Context, tx pgx.Tx, id int64) error {
			store.stock--
			return nil
		},
		insertRentalFn: func(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
			store.rentals++
			return nil
		},
	}
	s := New(db, m)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Rent(context.Background(), 1, 7)
		}(i)
	}
	wg.Wait()

	var ok, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == ErrOutOfStock:
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one rent must win the last copy")
	require.Equal(t, 1, outOfStock)
	require.Equal(t, int64(0), store.stock)
	require.Equal(t, 1, store.rentals)
}
