// Package promo defines discount codes and their applicability rules.
package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/marketrun/platform/internal/errors"
)

// DiscountType selects how a promo discount is computed.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// PromoCode is a discount code. Codes are stored uppercase and matched
// case-insensitively. MaxDiscount applies only to percentage promos; zero
// means uncapped. Amounts are whole naira.
type PromoCode struct {
	Code         string
	DiscountType DiscountType
	Value        int64
	MaxDiscount  int64
	MinimumOrder int64
	ExpiresAt    time.Time
	UsageLimit   int
	UsedCount    int
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize canonicalises a user-supplied code for storage and lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckApplicable reports whether the promo may be applied to an order with
// the given subtotal at the given time. The returned error carries the
// human-readable rejection reason.
func (p PromoCode) CheckApplicable(subtotal int64, now time.Time) error {
	if !p.Active {
		return errors.Precondition("promo code %s is no longer active", p.Code)
	}
	if !now.Before(p.ExpiresAt) {
		return errors.Precondition("promo code %s has expired", p.Code)
	}
	if p.UsedCount >= p.UsageLimit {
		return errors.Precondition("promo code %s has reached its usage limit", p.Code)
	}
	if subtotal < p.MinimumOrder {
		return errors.Precondition("order must be at least %s to use %s", FormatNaira(p.MinimumOrder), p.Code)
	}
	return nil
}

// Discount computes the discount for the given subtotal. Percentage discounts
// round half-up and are capped by MaxDiscount when set; flat discounts are the
// configured value regardless of subtotal.
func (p PromoCode) Discount(subtotal int64) int64 {
	switch p.DiscountType {
	case DiscountPercentage:
		d := (subtotal*p.Value + 50) / 100
		if p.MaxDiscount > 0 && d > p.MaxDiscount {
			d = p.MaxDiscount
		}
		return d
	case DiscountFlat:
		return p.Value
	}
	return 0
}

// Exhausted reports whether the promo can never be applied again.
func (p PromoCode) Exhausted(now time.Time) bool {
	return !now.Before(p.ExpiresAt) || p.UsedCount >= p.UsageLimit
}

// FormatNaira renders a whole-naira amount for user-facing messages.
func FormatNaira(amount int64) string {
	return fmt.Sprintf("₦%d", amount)
}
