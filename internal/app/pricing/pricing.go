// Package pricing computes every line of an order total: subtotal, delivery
// fees, the service fee, and promo discounts. All amounts are whole naira and
// every fractional computation rounds half-up.
package pricing

import (
	"strings"
	"time"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/errors"
)

// NoFeeSentinel marks a destination outside the fee table. Checkout must not
// proceed to payment for such a destination; it requires a manual quote.
const NoFeeSentinel int64 = -1

// DeliverySlot selects when the order should arrive.
type DeliverySlot string

const (
	SlotSoonest DeliverySlot = "soonest"
	SlotEvening DeliverySlot = "same_day_evening"
	SlotNextDay DeliverySlot = "next_day"
)

// ValidSlot reports whether s is a known delivery slot.
func ValidSlot(s DeliverySlot) bool {
	switch s {
	case SlotSoonest, SlotEvening, SlotNextDay:
		return true
	}
	return false
}

// FeeTable is the location and slot fee configuration. The home metro gets a
// fixed fee plus slot surcharges; the rest of the country gets a flat higher
// fee with no surcharge; everywhere else is out of service.
type FeeTable struct {
	HomeState    string
	HomeCountry  string
	HomeMetroFee int64
	DomesticFee  int64
	SlotFees     map[DeliverySlot]int64
}

// DefaultFeeTable returns the production fee schedule: Lagos deliveries at a
// fixed base fee, the rest of Nigeria at a higher flat fee.
func DefaultFeeTable() FeeTable {
	return FeeTable{
		HomeState:    "lagos",
		HomeCountry:  "nigeria",
		HomeMetroFee: 2000,
		DomesticFee:  5000,
		SlotFees: map[DeliverySlot]int64{
			SlotSoonest: 500,
			SlotEvening: 200,
			SlotNextDay: 0,
		},
	}
}

func normalizePlace(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// InHomeMetro reports whether the address is inside the home metro area.
func (t FeeTable) InHomeMetro(addr account.Address) bool {
	if !t.inCountry(addr) {
		return false
	}
	return normalizePlace(addr.State) == t.HomeState ||
		normalizePlace(addr.City) == t.HomeState
}

func (t FeeTable) inCountry(addr account.Address) bool {
	country := normalizePlace(addr.Country)
	// Legacy addresses predate the country field and are all domestic.
	return country == "" || country == t.HomeCountry
}

// BaseDeliveryFee looks up the address in the fee table. It returns
// NoFeeSentinel for destinations the table does not cover.
func (t FeeTable) BaseDeliveryFee(addr account.Address) int64 {
	if !t.inCountry(addr) {
		return NoFeeSentinel
	}
	if normalizePlace(addr.State) == "" && normalizePlace(addr.City) == "" {
		return NoFeeSentinel
	}
	if t.InHomeMetro(addr) {
		return t.HomeMetroFee
	}
	return t.DomesticFee
}

// SlotFee returns the surcharge for the chosen slot. Slot surcharges apply
// only inside the home metro area.
func (t FeeTable) SlotFee(addr account.Address, slot DeliverySlot) int64 {
	if !t.InHomeMetro(addr) {
		return 0
	}
	return t.SlotFees[slot]
}

// ServiceFeePercent is the platform service fee applied to every order.
const ServiceFeePercent = 1

// ServiceFee is 1% of the subtotal, rounded half-up to the nearest naira.
func ServiceFee(subtotal int64) int64 {
	return (subtotal*ServiceFeePercent + 50) / 100
}

// Subtotal sums the priced order lines.
func Subtotal(items []order.Item) int64 {
	var sum int64
	for _, it := range items {
		sum += it.LineTotal
	}
	return sum
}

// Quote is the full cost breakdown for a prospective order.
type Quote struct {
	Subtotal        int64
	DeliveryFee     int64
	DeliveryTimeFee int64
	ServiceFee      int64
	Discount        int64
	Total           int64
	PromoCode       string
}

// ErrOutOfService is returned when the destination has no fixed delivery fee
// and checkout must be routed to support for a manual quote.
var ErrOutOfService = errors.Precondition("delivery to this destination requires a manual quote; please contact support")

// Compute produces the cost breakdown for the given priced items, destination,
// slot and optional promo. The promo must already have passed its
// applicability check. The total is clamped at zero so an oversized flat
// discount can never drive it negative.
func Compute(items []order.Item, addr account.Address, slot DeliverySlot, p *promo.PromoCode, table FeeTable) (Quote, error) {
	if !ValidSlot(slot) {
		return Quote{}, errors.Validation("unknown delivery slot %q", slot)
	}

	baseFee := table.BaseDeliveryFee(addr)
	if baseFee == NoFeeSentinel {
		return Quote{}, ErrOutOfService
	}

	q := Quote{
		Subtotal:        Subtotal(items),
		DeliveryFee:     baseFee,
		DeliveryTimeFee: table.SlotFee(addr, slot),
	}
	q.ServiceFee = ServiceFee(q.Subtotal)

	if p != nil {
		q.Discount = p.Discount(q.Subtotal)
		q.PromoCode = p.Code
	}

	q.Total = q.Subtotal + q.DeliveryFee + q.DeliveryTimeFee + q.ServiceFee - q.Discount
	if q.Total < 0 {
		q.Total = 0
	}
	return q, nil
}

// ValidatePromo runs the applicability check for a promo against a subtotal,
// returning the rejection reason when it cannot be applied.
func ValidatePromo(p promo.PromoCode, subtotal int64, now time.Time) error {
	return p.CheckApplicable(subtotal, now)
}
