package customerrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rafael-fxs/locadora-ppm/model"
	"github.com/rafael-fxs/locadora-ppm/util/database"
)

type Repo interface {
	Create(ctx context.Context, c *model.Customer) error
	List(ctx context.Context) ([]model.Customer, error)
	ByID(ctx context.Context, id int64) (*model.Customer, error)
	Update(ctx context.Context, c *model.Customer) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// LockByID reads the customer row FOR UPDATE inside tx; used when linking
	// a subscription so two registrations for the same customer serialize.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error)
	SetSubscription(ctx context.Context, tx pgx.Tx, customerID, subscriptionID int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const customerCols = `id, name, address, age, subscription_id`

func (r *repo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO customers(name, address, age)
		VALUES ($1,$2,$3)
		RETURNING id`,
		c.Name, c.Address, c.Age,
	).Scan(&c.ID)
}

func (r *repo) List(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+customerCols+`
		FROM customers
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Age, &c.SubscriptionID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Customer, error) {
	c := &model.Customer{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT `+customerCols+`
		FROM customers
		WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Address, &c.Age, &c.SubscriptionID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) Update(ctx context.Context, c *model.Customer) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE customers
		SET name = $2, address = $3, age = $4
		WHERE id = $1`,
		c.ID, c.Name, c.Address, c.Age)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error) {
	c := &model.Customer{}
	err := tx.QueryRow(ctx, `
		SELECT `+customerCols+`
		FROM customers
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&c.ID, &c.Name, &c.Address, &c.Age, &c.SubscriptionID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) SetSubscription(ctx context.Context, tx pgx.Tx, customerID, subscriptionID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE customers
		SET subscription_id = $2
		WHERE id = $1`,
		customerID, subscriptionID)
	return err
}
