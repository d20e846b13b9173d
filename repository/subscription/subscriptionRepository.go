package subsrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rafael-fxs/locadora-ppm/model"
	"github.com/rafael-fxs/locadora-ppm/util/database"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, s *model.Subscription) error
	ByID(ctx context.Context, id int64) (*model.Subscription, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, s *model.Subscription) error {
	return tx.QueryRow(ctx, `
		INSERT INTO subscriptions(tier, discount_percent, extra_days, waives_late_fee)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		s.Tier, s.DiscountPercent, s.ExtraDays, s.WaivesLateFee,
	).Scan(&s.ID)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Subscription, error) {
	s := &model.Subscription{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, tier, discount_percent, extra_days, waives_late_fee
		FROM subscriptions
		WHERE id = $1`, id,
	).Scan(&s.ID, &s.Tier, &s.DiscountPercent, &s.ExtraDays, &s.WaivesLateFee)
	if err != nil {
		return nil, err
	}
	return s, nil
}
