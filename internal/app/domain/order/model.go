// Package order defines the order snapshot and its delivery lifecycle.
package order

import "time"

// Status is the delivery lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShopping  Status = "shopping"
	StatusPurchased Status = "purchased"
	StatusDelivery  Status = "delivery"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod selects how an order was paid for.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentWallet PaymentMethod = "wallet"
)

// forward is the linear progression of the lifecycle. Cancellation is handled
// separately since it is reachable from any non-terminal state.
var forward = map[Status]Status{
	StatusPending:   StatusShopping,
	StatusShopping:  StatusPurchased,
	StatusPurchased: StatusDelivery,
	StatusDelivery:  StatusDelivered,
}

// Terminal reports whether no further transition is allowed from s.
func Terminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusShopping, StatusPurchased, StatusDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from may move to to. The lifecycle is forward
// only with no skips; cancelled is reachable from any non-terminal state.
func CanTransition(from, to Status) bool {
	if Terminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return forward[from] == to
}

// TrackingStep is one entry in the append-only progress timeline shown to the
// customer.
type TrackingStep struct {
	Label string
	At    time.Time
}

// Item is a priced snapshot of a cart line at checkout. Prices are resolved
// once here and never re-read from the catalog.
type Item struct {
	ProductID      string
	VariationID    string
	Name           string
	VariationName  string
	UnitPrice      int64
	Quantity       int
	LineTotal      int64
	SpecialRequest string
}

// Address is the delivery destination snapshot carried on the order.
type Address struct {
	Label  string
	Street string
	City   string
	State  string
	Phone  string
}

// Order is created once at checkout and afterwards mutated only by status
// transitions and agent contact updates.
type Order struct {
	ID               string
	UserID           string
	Items            []Item
	Address          Address
	PaymentMethod    PaymentMethod
	PaymentReference string
	DeliverySlot     string

	Subtotal        int64
	DeliveryFee     int64
	DeliveryTimeFee int64
	ServiceFee      int64
	Discount        int64
	Total           int64
	PromoCode       string

	Status        Status
	TrackingSteps []TrackingStep
	AgentName     string
	AgentPhone    string

	CreatedAt time.Time
	UpdatedAt time.Time
}
