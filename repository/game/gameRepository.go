package gamerepo

import (
	"context"

	"github.com/rafael-fxs/locadora-ppm/model"
	"github.com/rafael-fxs/locadora-ppm/util/database"
)

type Repo interface {
	Create(ctx context.Context, g *model.Game) error
	List(ctx context.Context) ([]model.Game, error)
	ByID(ctx context.Context, id int64) (*model.Game, error)
	Update(ctx context.Context, g *model.Game) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

const gameCols = `id, title, platform, min_age, stock, price, discount`

func (r *repo) Create(ctx context.Context, g *model.Game) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO games(title, platform, min_age, stock, price, discount)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		g.Title, g.Platform, g.MinAge, g.Stock, g.Price, g.Discount,
	).Scan(&g.ID)
}

func (r *repo) List(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+gameCols+`
		FROM games
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Title, &g.Platform, &g.MinAge, &g.Stock, &g.Price, &g.Discount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Game, error) {
	g := &model.Game{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT `+gameCols+`
		FROM games
		WHERE id = $1`, id,
	).Scan(&g.ID, &g.Title, &g.Platform, &g.MinAge, &g.Stock, &g.Price, &g.Discount)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *repo) Update(ctx context.Context, g *model.Game) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE games
		SET title = $2, platform = $3, min_age = $4, stock = $5, price = $6, discount = $7
		WHERE id = $1`,
		g.ID, g.Title, g.Platform, g.MinAge, g.Stock, g.Price, g.Discount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
