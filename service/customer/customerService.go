package customersvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rafael-fxs/locadora-ppm/model"
	repo "github.com/rafael-fxs/locadora-ppm/repository/customer"
)

var ErrNotFound = errors.New("customer not found")

type Repo interface {
	Create(ctx context.Context, c *model.Customer) error
	List(ctx context.Context) ([]model.Customer, error)
	ByID(ctx context.Context, id int64) (*model.Customer, error)
	Update(ctx context.Context, c *model.Customer) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

var _ Repo = (repo.Repo)(nil)

type Service interface {
	Create(ctx context.Context, name, address string, age int) (*model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
	Detail(ctx context.Context, id int64) (*model.Customer, error)
	Update(ctx context.Context, id int64, name, address string, age int) (*model.Customer, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, name, address string, age int) (*model.Customer, error) {
	if name == "" || age < 0 {
		return nil, errors.New("invalid payload")
	}
	c := &model.Customer{Name: name, Address: address, Age: age}
	if err := s.r.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) List(ctx context.Context) ([]model.Customer, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := s.r.ByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *service) Update(ctx context.Context, id int64, name, address string, age int) (*model.Customer, error) {
	if name == "" || age < 0 {
		return nil, errors.New("invalid payload")
	}
	c := &model.Customer{ID: id, Name: name, Address: address, Age: age}
	ok, err := s.r.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.r.ByID(ctx, id)
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
