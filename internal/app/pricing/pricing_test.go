package pricing

import (
	"testing"
	"time"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/errors"
)

func lagosAddress() account.Address {
	return account.Address{Street: "12 Adeola Odeku", City: "Victoria Island", State: "Lagos", Country: "Nigeria"}
}

func abujaAddress() account.Address {
	return account.Address{Street: "3 Gana Street", City: "Maitama", State: "FCT", Country: "Nigeria"}
}

func items(lineTotals ...int64) []order.Item {
	out := make([]order.Item, 0, len(lineTotals))
	for _, lt := range lineTotals {
		out = append(out, order.Item{Quantity: 1, UnitPrice: lt, LineTotal: lt})
	}
	return out
}

func TestBaseDeliveryFee(t *testing.T) {
	table := DefaultFeeTable()

	if fee := table.BaseDeliveryFee(lagosAddress()); fee != 2000 {
		t.Fatalf("lagos fee: %d", fee)
	}
	if fee := table.BaseDeliveryFee(abujaAddress()); fee != 5000 {
		t.Fatalf("abuja fee: %d", fee)
	}
	foreign := account.Address{Street: "1 High St", City: "Accra", State: "Greater Accra", Country: "Ghana"}
	if fee := table.BaseDeliveryFee(foreign); fee != NoFeeSentinel {
		t.Fatalf("foreign fee should be sentinel, got %d", fee)
	}
	blank := account.Address{Street: "somewhere"}
	if fee := table.BaseDeliveryFee(blank); fee != NoFeeSentinel {
		t.Fatalf("blank location fee should be sentinel, got %d", fee)
	}
}

func TestSlotFeeOnlyInHomeMetro(t *testing.T) {
	table := DefaultFeeTable()

	if fee := table.SlotFee(lagosAddress(), SlotSoonest); fee != 500 {
		t.Fatalf("lagos soonest: %d", fee)
	}
	if fee := table.SlotFee(lagosAddress(), SlotEvening); fee != 200 {
		t.Fatalf("lagos evening: %d", fee)
	}
	if fee := table.SlotFee(lagosAddress(), SlotNextDay); fee != 0 {
		t.Fatalf("lagos next day: %d", fee)
	}
	if fee := table.SlotFee(abujaAddress(), SlotSoonest); fee != 0 {
		t.Fatalf("abuja soonest should be free of surcharge: %d", fee)
	}
}

func TestServiceFeeRounding(t *testing.T) {
	cases := []struct {
		subtotal int64
		want     int64
	}{
		{5000, 50},
		{100, 1},
		{49, 0},  // 0.49 rounds down
		{50, 1},  // 0.50 rounds up
		{149, 1}, // 1.49 rounds down
		{150, 2}, // 1.50 rounds up
		{0, 0},
	}
	for _, tc := range cases {
		if got := ServiceFee(tc.subtotal); got != tc.want {
			t.Fatalf("service fee of %d: got %d, want %d", tc.subtotal, got, tc.want)
		}
	}
}

func TestComputeFullBreakdown(t *testing.T) {
	table := DefaultFeeTable()
	p := &promo.PromoCode{
		Code:         "SAVE300",
		DiscountType: promo.DiscountFlat,
		Value:        300,
		ExpiresAt:    time.Now().Add(time.Hour),
		UsageLimit:   10,
		Active:       true,
	}

	q, err := Compute(items(5000), lagosAddress(), SlotSoonest, p, table)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if q.Subtotal != 5000 || q.DeliveryFee != 2000 || q.DeliveryTimeFee != 500 || q.ServiceFee != 50 || q.Discount != 300 {
		t.Fatalf("unexpected breakdown: %+v", q)
	}
	if q.Total != 7250 {
		t.Fatalf("total: got %d, want 7250", q.Total)
	}
	if q.PromoCode != "SAVE300" {
		t.Fatalf("promo code not carried: %q", q.PromoCode)
	}
}

func TestComputeOutOfService(t *testing.T) {
	foreign := account.Address{Street: "1 High St", City: "Accra", Country: "Ghana"}
	_, err := Compute(items(5000), foreign, SlotNextDay, nil, DefaultFeeTable())
	if err == nil {
		t.Fatal("expected out of service error")
	}
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("unexpected error kind: %v", err)
	}
}

func TestComputeRejectsUnknownSlot(t *testing.T) {
	_, err := Compute(items(1000), lagosAddress(), DeliverySlot("whenever"), nil, DefaultFeeTable())
	if !errors.Is(err, errors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeClampsTotalAtZero(t *testing.T) {
	p := &promo.PromoCode{
		Code:         "BIGFLAT",
		DiscountType: promo.DiscountFlat,
		Value:        100000,
		ExpiresAt:    time.Now().Add(time.Hour),
		UsageLimit:   10,
		Active:       true,
	}
	q, err := Compute(items(1000), lagosAddress(), SlotNextDay, p, DefaultFeeTable())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if q.Total != 0 {
		t.Fatalf("total should clamp at zero, got %d", q.Total)
	}
}

func TestPercentageDiscountCapped(t *testing.T) {
	p := &promo.PromoCode{
		Code:         "TEN",
		DiscountType: promo.DiscountPercentage,
		Value:        10,
		MaxDiscount:  400,
		ExpiresAt:    time.Now().Add(time.Hour),
		UsageLimit:   10,
		Active:       true,
	}
	q, err := Compute(items(10000), lagosAddress(), SlotNextDay, p, DefaultFeeTable())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// 10% of 10000 is 1000, capped at 400.
	if q.Discount != 400 {
		t.Fatalf("discount: got %d, want 400", q.Discount)
	}
}
