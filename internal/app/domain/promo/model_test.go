package promo

import (
	"strings"
	"testing"
	"time"
)

func activePromo() PromoCode {
	return PromoCode{
		Code:         "SAVE10",
		DiscountType: DiscountPercentage,
		Value:        10,
		MinimumOrder: 1000,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		UsageLimit:   10,
		Active:       true,
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  save10 "); got != "SAVE10" {
		t.Fatalf("normalize: %q", got)
	}
}

func TestCheckApplicable(t *testing.T) {
	now := time.Now()

	p := activePromo()
	if err := p.CheckApplicable(5000, now); err != nil {
		t.Fatalf("active promo rejected: %v", err)
	}

	expired := activePromo()
	expired.ExpiresAt = now.Add(-time.Minute)
	if err := expired.CheckApplicable(5000, now); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry rejection, got %v", err)
	}

	exhausted := activePromo()
	exhausted.UsedCount = 10
	if err := exhausted.CheckApplicable(5000, now); err == nil || !strings.Contains(err.Error(), "usage limit") {
		t.Fatalf("expected usage limit rejection, got %v", err)
	}

	belowMinimum := activePromo()
	if err := belowMinimum.CheckApplicable(999, now); err == nil || !strings.Contains(err.Error(), "at least") {
		t.Fatalf("expected minimum order rejection, got %v", err)
	}

	inactive := activePromo()
	inactive.Active = false
	if err := inactive.CheckApplicable(5000, now); err == nil || !strings.Contains(err.Error(), "no longer active") {
		t.Fatalf("expected inactive rejection, got %v", err)
	}
}

func TestDiscount(t *testing.T) {
	pct := activePromo()
	if got := pct.Discount(5000); got != 500 {
		t.Fatalf("10%% of 5000: %d", got)
	}
	// Half-up rounding: 10% of 1005 is 100.5 -> 101.
	if got := pct.Discount(1005); got != 101 {
		t.Fatalf("10%% of 1005: %d", got)
	}

	capped := activePromo()
	capped.MaxDiscount = 300
	if got := capped.Discount(5000); got != 300 {
		t.Fatalf("capped discount: %d", got)
	}

	flat := PromoCode{Code: "FLAT", DiscountType: DiscountFlat, Value: 250}
	if got := flat.Discount(100); got != 250 {
		t.Fatalf("flat discount ignores subtotal: %d", got)
	}
}

func TestExhausted(t *testing.T) {
	now := time.Now()
	p := activePromo()
	if p.Exhausted(now) {
		t.Fatal("fresh promo should not be exhausted")
	}
	p.UsedCount = p.UsageLimit
	if !p.Exhausted(now) {
		t.Fatal("promo at usage limit is exhausted")
	}
	p = activePromo()
	p.ExpiresAt = now.Add(-time.Second)
	if !p.Exhausted(now) {
		t.Fatal("expired promo is exhausted")
	}
}
