package subscription

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/rafael-fxs/locadora-ppm/model"
)

// Tier is the closed set of subscription plans. Anything else is rejected;
// there is no silent "no effects" fallback.
type Tier string

const (
	TierBasic   Tier = "BASIC"
	TierPremium Tier = "PREMIUM"
)

// Effects are a tier's fixed policy bundle.
type Effects struct {
	DiscountPercent float64
	ExtraDays       int
	WaivesLateFee   bool
}

var (
	ErrInvalidTier      = errors.New("invalid subscription tier")
	ErrCustomerNotFound = errors.New("customer not found")
)

// Resolve maps a tier to its effects. Pure lookup, no side effects.
func Resolve(t Tier) (Effects, error) {
	switch t {
	case TierBasic:
		return Effects{DiscountPercent: 10, ExtraDays: 3, WaivesLateFee: false}, nil
	case TierPremium:
		return Effects{DiscountPercent: 20, ExtraDays: 7, WaivesLateFee: true}, nil
	default:
		return Effects{}, ErrInvalidTier
	}
}

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type CustomerRepo interface {
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Customer, error)
	SetSubscription(ctx context.Context, tx pgx.Tx, customerID, subscriptionID int64) error
}

type SubscriptionRepo interface {
	Insert(ctx context.Context, tx pgx.Tx, s *model.Subscription) error
}

type Service interface {
	// Register resolves the tier, persists its effects and links the customer.
	Register(ctx context.Context, customerID int64, tier Tier) (*model.Subscription, error)
}

type service struct {
	db DB
	cr CustomerRepo
	sr SubscriptionRepo
}

func New(db DB, cr CustomerRepo, sr SubscriptionRepo) Service {
	return &service{db: db, cr: cr, sr: sr}
}

func (s *service) Register(ctx context.Context, customerID int64, tier Tier) (_ *model.Subscription, err error) {
	eff, err := Resolve(tier)
	if err != nil {
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

	if _, err = s.cr.LockByID(ctx, tx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	sub := &model.Subscription{
		Tier:            string(tier),
		DiscountPercent: eff.DiscountPercent,
		ExtraDays:       eff.ExtraDays,
		WaivesLateFee:   eff.WaivesLateFee,
	}
	if err = s.sr.Insert(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err = s.cr.SetSubscription(ctx, tx, customerID, sub.ID); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return sub, nil
}
