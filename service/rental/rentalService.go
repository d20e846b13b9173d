package rental

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rafael-fxs/locadora-ppm/model"
	rrepo "github.com/rafael-fxs/locadora-ppm/repository/rental"
)

const (
	loanDays      = 7
	lateFeePerDay = 5.0
)

// errors used by controllers

type ErrCode string

const (
	ErrCustomerNotFound ErrCode = "CUSTOMER_NOT_FOUND"
	ErrGameNotFound     ErrCode = "GAME_NOT_FOUND"
	ErrAgeRestricted    ErrCode = "AGE_RESTRICTED"
	ErrOutOfStock       ErrCode = "OUT_OF_STOCK"
	ErrRentalNotFound   ErrCode = "RENTAL_NOT_FOUND"
	ErrConflict         ErrCode = "CONCURRENT_CONFLICT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// HistoryRow = repository shape
type HistoryRow = rrepo.HistoryRow

// OverdueRow = repository shape
type OverdueRow = rrepo.OverdueRow

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repo interface {
	GetCustomer(ctx context.Context, customerID int64) (*model.Customer, error)
	GetSubscription(ctx context.Context, subscriptionID int64) (*model.Subscription, error)

	LockGame(ctx context.Context, tx pgx.Tx, gameID int64) (*model.Game, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, gameID int64) error
	IncrementStock(ctx context.Context, tx pgx.Tx, gameID int64) error

	InsertRental(ctx context.Context, tx pgx.Tx, r *model.Rental) error
	LockOutstanding(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error)
	MarkReturned(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error

	ListByCustomer(ctx context.Context, customerID int64) ([]HistoryRow, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]OverdueRow, error)
}

type Service interface {
	// Rent: charge the stacked price, book a copy and open a rental.
	Rent(ctx context.Context, customerID, gameID int64) (*model.Rental, error)

	// Return: close the outstanding rental, free the copy, compute the late fee.
	Return(ctx context.Context, customerID, gameID int64, returnedAt time.Time) (float64, error)

	// History: list rentals for a customer.
	History(ctx context.Context, customerID int64) ([]HistoryRow, error)

	// Overdue: outstanding rentals past due as of now.
	Overdue(ctx context.Context) ([]OverdueRow, error)
}

// ----- Service implementation -----

type service struct {
	db DB
	r  Repo
}

func New(db DB, r Repo) Service {
	return &service{db: db, r: r}
}

// Rent validates the customer against the game rating and stock, stacks the
// game and subscription discounts, and opens the rental. The stock decrement
// and the rental insert commit together or not at all.
func (s *service) Rent(ctx context.Context, customerID, gameID int64) (*model.Rental, error) {
	out, err := s.rentOnce(ctx, customerID, gameID)
	if retryable(err) {
		out, err = s.rentOnce(ctx, customerID, gameID)
	}
	if retryable(err) {
		return nil, makeErr(ErrConflict)
	}
	return out, err
}

func (s *service) rentOnce(ctx context.Context, customerID, gameID int64) (_ *model.Rental, err error) {
	cust, err := s.r.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrCustomerNotFound)
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	game, err := s.r.LockGame(ctx, tx, gameID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrGameNotFound)
		}
		return nil, err
	}

	if cust.Age < game.MinAge {
		return nil, makeErr(ErrAgeRestricted)
	}
	if game.Stock <= 0 {
		return nil, makeErr(ErrOutOfStock)
	}

	price := game.EffectivePrice()
	extraDays := 0
	if cust.SubscriptionID != nil {
		sub, err := s.r.GetSubscription(ctx, *cust.SubscriptionID)
		if err != nil {
			return nil, err
		}
		price -= price * sub.DiscountPercent / 100
		extraDays = sub.ExtraDays
	}

	rentedAt := dateOnly(time.Now().UTC())
	rental := &model.Rental{
		CustomerID: customerID,
		GameID:     gameID,
		RentedAt:   rentedAt,
		DueAt:      rentedAt.AddDate(0, 0, loanDays+extraDays),
		Price:      price,
	}

	if err = s.r.DecrementStock(ctx, tx, gameID); err != nil {
		return nil, err
	}
	if err = s.r.InsertRental(ctx, tx, rental); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return rental, nil
}

// Return closes the single outstanding rental for (customer, game). Late fee
// is per whole day past due; a waiver tier zeroes it, any other subscription
// still owes it in full.
func (s *service) Return(ctx context.Context, customerID, gameID int64, returnedAt time.Time) (float64, error) {
	fee, err := s.returnOnce(ctx, customerID, gameID, returnedAt)
	if retryable(err) {
		fee, err = s.returnOnce(ctx, customerID, gameID, returnedAt)
	}
	if retryable(err) {
		return 0, makeErr(ErrConflict)
	}
	return fee, err
}

func (s *service) returnOnce(ctx context.Context, customerID, gameID int64, returnedAt time.Time) (_ float64, err error) {
	cust, err := s.r.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, makeErr(ErrCustomerNotFound)
		}
		return 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the game row first, same order as Rent.
	if _, err = s.r.LockGame(ctx, tx, gameID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, makeErr(ErrGameNotFound)
		}
		return 0, err
	}

	rental, err := s.r.LockOutstanding(ctx, tx, customerID, gameID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, makeErr(ErrRentalNotFound)
		}
		return 0, err
	}

	returnedAt = dateOnly(returnedAt)
	lateDays := wholeDays(rental.DueAt, returnedAt)

	fee := 0.0
	if lateDays > 0 {
		waived := false
		if cust.SubscriptionID != nil {
			sub, err := s.r.GetSubscription(ctx, *cust.SubscriptionID)
			if err != nil {
				return 0, err
			}
			waived = sub.WaivesLateFee
		}
		if !waived {
			fee = float64(lateDays) * lateFeePerDay
		}
	}

	if err = s.r.IncrementStock(ctx, tx, gameID); err != nil {
		return 0, err
	}
	if err = s.r.MarkReturned(ctx, tx, rental.ID, returnedAt, fee); err != nil {
		return 0, err
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	return fee, nil
}

func (s *service) History(ctx context.Context, customerID int64) ([]HistoryRow, error) {
	return s.r.ListByCustomer(ctx, customerID)
}

func (s *service) Overdue(ctx context.Context) ([]OverdueRow, error) {
	return s.r.ListOverdue(ctx, dateOnly(time.Now().UTC()))
}

// dateOnly drops the time-of-day; all rental dates are calendar dates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// wholeDays is the signed day count from due to returned.
func wholeDays(due, returned time.Time) int {
	return int(returned.Sub(due).Hours() / 24)
}

// retryable reports whether the store refused to serialize the transaction;
// the operation is retried once before surfacing CONCURRENT_CONFLICT.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	}
	return false
}
