package gamesvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rafael-fxs/locadora-ppm/model"
	repo "github.com/rafael-fxs/locadora-ppm/repository/game"
)

var ErrNotFound = errors.New("game not found")

type Repo interface {
	Create(ctx context.Context, g *model.Game) error
	List(ctx context.Context) ([]model.Game, error)
	ByID(ctx context.Context, id int64) (*model.Game, error)
	Update(ctx context.Context, g *model.Game) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

var _ Repo = (repo.Repo)(nil)

type Service interface {
	Create(ctx context.Context, g *model.Game) (*model.Game, error)
	List(ctx context.Context) ([]model.Game, error)
	Detail(ctx context.Context, id int64) (*model.Game, error)
	Update(ctx context.Context, g *model.Game) (*model.Game, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func validate(g *model.Game) error {
	if g.Title == "" || g.MinAge < 0 || g.Stock < 0 || g.Price < 0 {
		return errors.New("invalid payload")
	}
	if g.Discount < 0 || g.Discount > 100 {
		return errors.New("invalid payload")
	}
	return nil
}

func (s *service) Create(ctx context.Context, g *model.Game) (*model.Game, error) {
	if err := validate(g); err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *service) List(ctx context.Context) ([]model.Game, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Game, error) {
	g, err := s.r.ByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func (s *service) Update(ctx context.Context, g *model.Game) (*model.Game, error) {
	if err := validate(g); err != nil {
		return nil, err
	}
	ok, err := s.r.Update(ctx, g)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.r.ByID(ctx, g.ID)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
