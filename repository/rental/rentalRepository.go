// repository/rental/repo.go
//
// All SQL one rent or return transaction touches lives here: the customer and
// subscription reads, the game row lock with its guarded stock updates, and
// the rental insert/close. Lock order is always game row first, then rental
// row, so concurrent rents and returns on the same game cannot deadlock.
package rentalrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rafael-fxs/locadora-ppm/model"
	"github.com/rafael-fxs/locadora-ppm/util/database"
)

type HistoryRow struct {
	RentalID   int64      `json:"rental_id"`
	GameID     int64      `json:"game_id"`
	GameTitle  string     `json:"game_title"`
	Price      float64    `json:"price"`
	LateFee    float64    `json:"late_fee"`
	RentedAt   time.Time  `json:"rented_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

type OverdueRow struct {
	RentalID     int64     `json:"rental_id"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	GameID       int64     `json:"game_id"`
	GameTitle    string    `json:"game_title"`
	DueAt        time.Time `json:"due_at"`
}

type Repo interface {
	// Reads outside or inside the rent/return transaction
	GetCustomer(ctx context.Context, customerID int64) (*model.Customer, error)
	GetSubscription(ctx context.Context, subscriptionID int64) (*model.Subscription, error)

	// Game row: lock then mutate, always inside tx
	LockGame(ctx context.Context, tx pgx.Tx, gameID int64) (*model.Game, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, gameID int64) error
	IncrementStock(ctx context.Context, tx pgx.Tx, gameID int64) error

	// Rentals
	InsertRental(ctx context.Context, tx pgx.Tx, r *model.Rental) error
	LockOutstanding(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error)
	MarkReturned(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error

	// Reporting
	ListByCustomer(ctx context.Context, customerID int64) ([]HistoryRow, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]OverdueRow, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) GetCustomer(ctx context.Context, customerID int64) (*model.Customer, error) {
	c := &model.Customer{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, address, age, subscription_id
		FROM customers
		WHERE id = $1`, customerID,
	).Scan(&c.ID, &c.Name, &c.Address, &c.Age, &c.SubscriptionID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) GetSubscription(ctx context.Context, subscriptionID int64) (*model.Subscription, error) {
	s := &model.Subscription{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, tier, discount_percent, extra_days, waives_late_fee
		FROM subscriptions
		WHERE id = $1`, subscriptionID,
	).Scan(&s.ID, &s.Tier, &s.DiscountPercent, &s.ExtraDays, &s.WaivesLateFee)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Game row

func (r *repo) LockGame(ctx context.Context, tx pgx.Tx, gameID int64) (*model.Game, error) {
	g := &model.Game{}
	err := tx.QueryRow(ctx, `
		SELECT id, title, platform, min_age, stock, price, discount
		FROM games
		WHERE id = $1
		FOR UPDATE`, gameID,
	).Scan(&g.ID, &g.Title, &g.Platform, &g.MinAge, &g.Stock, &g.Price, &g.Discount)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *repo) DecrementStock(ctx context.Context, tx pgx.Tx, gameID int64) error {
	// Guard: never let stock go negative even if the caller skipped the check.
	tag, err := tx.Exec(ctx, `
		UPDATE games
		SET stock = stock - 1
		WHERE id = $1
		AND stock > 0`, gameID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("no stock to decrement")
	}
	return nil
}

func (r *repo) IncrementStock(ctx context.Context, tx pgx.Tx, gameID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE games
		SET stock = stock + 1
		WHERE id = $1`, gameID)
	return err
}

// Rentals

func (r *repo) InsertRental(ctx context.Context, tx pgx.Tx, rental *model.Rental) error {
	return tx.QueryRow(ctx, `
		INSERT INTO rentals (customer_id, game_id, rented_at, due_at, price, late_fee)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id`,
		rental.CustomerID, rental.GameID, rental.RentedAt, rental.DueAt, rental.Price,
	).Scan(&rental.ID)
}

func (r *repo) LockOutstanding(ctx context.Context, tx pgx.Tx, customerID, gameID int64) (*model.Rental, error) {
	rental := &model.Rental{}
	err := tx.QueryRow(ctx, `
		SELECT id, customer_id, game_id, rented_at, due_at, returned_at, price, late_fee
		FROM rentals
		WHERE customer_id = $1
		AND game_id = $2
		AND returned_at IS NULL
		FOR UPDATE`, customerID, gameID,
	).Scan(&rental.ID, &rental.CustomerID, &rental.GameID, &rental.RentedAt,
		&rental.DueAt, &rental.ReturnedAt, &rental.Price, &rental.LateFee)
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx pgx.Tx, rentalID int64, returnedAt time.Time, lateFee float64) error {
	// Guard: a rental is closed exactly once.
	tag, err := tx.Exec(ctx, `
		UPDATE rentals
		SET returned_at = $2,
			late_fee = $3
		WHERE id = $1
		AND returned_at IS NULL`,
		rentalID, returnedAt, lateFee)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("rental already returned")
	}
	return nil
}

// Reporting

func (r *repo) ListByCustomer(ctx context.Context, customerID int64) ([]HistoryRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT
			r.id          AS rental_id,
			r.game_id     AS game_id,
			g.title       AS game_title,
			r.price       AS price,
			r.late_fee    AS late_fee,
			r.rented_at   AS rented_at,
			r.due_at      AS due_at,
			r.returned_at AS returned_at
		FROM rentals r
		JOIN games g ON g.id = r.game_id
		WHERE r.customer_id = $1
		ORDER BY r.rented_at DESC, r.id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.RentalID, &h.GameID, &h.GameTitle,
			&h.Price, &h.LateFee, &h.RentedAt, &h.DueAt, &h.ReturnedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) ListOverdue(ctx context.Context, asOf time.Time) ([]OverdueRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT
			r.id        AS rental_id,
			r.customer_id,
			c.name      AS customer_name,
			r.game_id,
			g.title     AS game_title,
			r.due_at
		FROM rentals r
		JOIN customers c ON c.id = r.customer_id
		JOIN games g     ON g.id = r.game_id
		WHERE r.returned_at IS NULL
		AND r.due_at < $1
		ORDER BY r.due_at, r.id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueRow
	for rows.Next() {
		var o OverdueRow
		if err := rows.Scan(
			&o.RentalID, &o.CustomerID, &o.CustomerName,
			&o.GameID, &o.GameTitle, &o.DueAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
