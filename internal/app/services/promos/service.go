// Package promos manages discount codes: validation against an order
// subtotal, idempotent redemption, and the admin CRUD surface.
package promos

import (
	"context"
	"strings"
	"time"

	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/pkg/logger"
)

// Service provides promo operations.
type Service struct {
	store storage.PromoStore
	log   *logger.Logger
	now   func() time.Time
}

// New creates the promos service.
func New(store storage.PromoStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("promos")
	}
	return &Service{store: store, log: log, now: time.Now}
}

// WithClock overrides the time source. Tests use this to exercise expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInput is the admin-supplied promo payload.
type CreateInput struct {
	Code         string
	DiscountType promo.DiscountType
	Value        int64
	MaxDiscount  int64
	MinimumOrder int64
	ExpiresAt    time.Time
	UsageLimit   int
}

// Create registers a promo code.
func (s *Service) Create(ctx context.Context, in CreateInput) (promo.PromoCode, error) {
	code := promo.Normalize(in.Code)
	if code == "" {
		return promo.PromoCode{}, errors.Validation("promo code is required")
	}
	switch in.DiscountType {
	case promo.DiscountPercentage:
		if in.Value <= 0 || in.Value > 100 {
			return promo.PromoCode{}, errors.Validation("percentage discount must be between 1 and 100")
		}
	case promo.DiscountFlat:
		if in.Value <= 0 {
			return promo.PromoCode{}, errors.Validation("flat discount must be positive")
		}
	default:
		return promo.PromoCode{}, errors.Validation("unknown discount type %q", in.DiscountType)
	}
	if in.UsageLimit <= 0 {
		return promo.PromoCode{}, errors.Validation("usage limit must be positive")
	}
	if !in.ExpiresAt.After(s.now()) {
		return promo.PromoCode{}, errors.Validation("expiry must be in the future")
	}

	p := promo.PromoCode{
		Code:         code,
		DiscountType: in.DiscountType,
		Value:        in.Value,
		MaxDiscount:  in.MaxDiscount,
		MinimumOrder: in.MinimumOrder,
		ExpiresAt:    in.ExpiresAt,
		UsageLimit:   in.UsageLimit,
		Active:       true,
	}
	created, err := s.store.CreatePromo(ctx, p)
	if err != nil {
		return promo.PromoCode{}, err
	}
	s.log.Infof("promo %s created (%s %d)", created.Code, created.DiscountType, created.Value)
	return created, nil
}

// List returns all promo codes. Admin surface only.
func (s *Service) List(ctx context.Context) ([]promo.PromoCode, error) {
	return s.store.ListPromos(ctx)
}

// Deactivate turns a promo off without deleting its history.
func (s *Service) Deactivate(ctx context.Context, code string) (promo.PromoCode, error) {
	p, err := s.store.GetPromoByCode(ctx, code)
	if err != nil {
		return promo.PromoCode{}, err
	}
	p.Active = false
	return s.store.UpdatePromo(ctx, p)
}

// Validate checks that a code may be applied to an order with the given
// subtotal. It returns the promo on success; the error carries the
// human-readable rejection reason otherwise.
func (s *Service) Validate(ctx context.Context, code string, subtotal int64) (promo.PromoCode, error) {
	p, err := s.store.GetPromoByCode(ctx, code)
	if err != nil {
		if errors.Is(err, errors.KindNotFound) {
			return promo.PromoCode{}, errors.Validation("promo code %s is not valid", promo.Normalize(code))
		}
		return promo.PromoCode{}, err
	}
	if err := p.CheckApplicable(subtotal, s.now()); err != nil {
		return promo.PromoCode{}, err
	}
	return p, nil
}

// Redeem consumes one use of a promo for the given checkout attempt. Retrying
// the same attempt id is a no-op, which keeps checkout retries from
// double-counting.
func (s *Service) Redeem(ctx context.Context, code, attemptID string) error {
	if strings.TrimSpace(attemptID) == "" {
		return errors.Validation("attempt id is required")
	}
	incremented, err := s.store.RedeemPromo(ctx, code, attemptID)
	if err != nil {
		return err
	}
	if !incremented {
		s.log.WithField("attempt_id", attemptID).Debugf("promo %s already redeemed for attempt", promo.Normalize(code))
	}
	return nil
}
