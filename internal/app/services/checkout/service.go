// Package checkout turns a cart into an order. It prices the cart, enforces
// the payment preconditions for each method, and coordinates the wallet debit
// or gateway verification with order creation.
package checkout

import (
	"context"
	"strings"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/cart"
	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/pricing"
	"github.com/marketrun/platform/internal/app/services/accounts"
	"github.com/marketrun/platform/internal/app/services/carts"
	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	"github.com/marketrun/platform/internal/app/services/orders"
	"github.com/marketrun/platform/internal/app/services/promos"
	"github.com/marketrun/platform/internal/app/services/wallets"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/payment"
	"github.com/marketrun/platform/pkg/logger"
)

// Service coordinates pricing, payment and order creation.
type Service struct {
	accounts *accounts.Service
	catalog  *catalogsvc.Service
	carts    *carts.Service
	promos   *promos.Service
	wallets  *wallets.Service
	orders   *orders.Service
	gateway  payment.Gateway
	table    pricing.FeeTable
	log      *logger.Logger
}

// Deps bundles the collaborators checkout needs.
type Deps struct {
	Accounts *accounts.Service
	Catalog  *catalogsvc.Service
	Carts    *carts.Service
	Promos   *promos.Service
	Wallets  *wallets.Service
	Orders   *orders.Service
	Gateway  payment.Gateway
	FeeTable pricing.FeeTable
	Log      *logger.Logger
}

// New creates the checkout service.
func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.NewDefault("checkout")
	}
	table := d.FeeTable
	if table.SlotFees == nil {
		table = pricing.DefaultFeeTable()
	}
	return &Service{
		accounts: d.Accounts,
		catalog:  d.Catalog,
		carts:    d.Carts,
		promos:   d.Promos,
		wallets:  d.Wallets,
		orders:   d.Orders,
		gateway:  d.Gateway,
		table:    table,
		log:      log,
	}
}

// QuoteInput selects the destination, slot and optional promo to price the
// user's cart against.
type QuoteInput struct {
	AddressID string
	Slot      pricing.DeliverySlot
	PromoCode string
}

// Quote prices the user's current cart without any side effects. The client
// shows this breakdown on the checkout screen.
func (s *Service) Quote(ctx context.Context, userID string, in QuoteInput) (pricing.Quote, error) {
	items, addr, p, err := s.prepare(ctx, userID, in)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Compute(items, addr, in.Slot, p, s.table)
}

// PlaceInput is a checkout submission. AttemptID is a client-generated id for
// this attempt; retries reuse it so promo redemption and the wallet debit
// cannot double-apply.
type PlaceInput struct {
	AttemptID        string
	AddressID        string
	Slot             pricing.DeliverySlot
	PromoCode        string
	PaymentMethod    order.PaymentMethod
	PaymentReference string
}

// BeginOnlinePayment prices the cart and initializes a gateway transaction
// for the total. The returned reference is passed back in PlaceInput after
// the payer completes the gateway flow.
func (s *Service) BeginOnlinePayment(ctx context.Context, userID string, in QuoteInput, attemptID string) (payment.InitResult, pricing.Quote, error) {
	if s.gateway == nil {
		return payment.InitResult{}, pricing.Quote{}, errors.Unavailable("card payments are not configured")
	}
	if strings.TrimSpace(attemptID) == "" {
		return payment.InitResult{}, pricing.Quote{}, errors.Validation("attempt id is required")
	}
	user, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return payment.InitResult{}, pricing.Quote{}, err
	}
	if user.Email == "" {
		return payment.InitResult{}, pricing.Quote{}, errors.Precondition("an email address is required for card payment")
	}

	quote, err := s.Quote(ctx, userID, in)
	if err != nil {
		return payment.InitResult{}, pricing.Quote{}, err
	}

	init, err := s.gateway.Initialize(ctx, user.Email, quote.Total, "order_"+attemptID)
	if err != nil {
		return payment.InitResult{}, pricing.Quote{}, errors.Unavailable("payment gateway: %v", err)
	}
	return init, quote, nil
}

// Place submits the checkout. For online payment the gateway transaction must
// already be successful; for wallet payment the balance must cover the total
// and the debit plus order creation behave as one unit, with a compensating
// refund if order creation fails after the debit.
func (s *Service) Place(ctx context.Context, userID string, in PlaceInput) (order.Order, error) {
	if strings.TrimSpace(in.AttemptID) == "" {
		return order.Order{}, errors.Validation("attempt id is required")
	}

	items, addr, p, err := s.prepare(ctx, userID, QuoteInput{AddressID: in.AddressID, Slot: in.Slot, PromoCode: in.PromoCode})
	if err != nil {
		return order.Order{}, err
	}
	quote, err := pricing.Compute(items, addr, in.Slot, p, s.table)
	if err != nil {
		return order.Order{}, err
	}

	draft := order.Order{
		UserID:        userID,
		Items:         items,
		Address:       snapshotAddress(addr),
		PaymentMethod: in.PaymentMethod,
		DeliverySlot:  string(in.Slot),

		Subtotal:        quote.Subtotal,
		DeliveryFee:     quote.DeliveryFee,
		DeliveryTimeFee: quote.DeliveryTimeFee,
		ServiceFee:      quote.ServiceFee,
		Discount:        quote.Discount,
		Total:           quote.Total,
		PromoCode:       quote.PromoCode,
	}

	var placed order.Order
	switch in.PaymentMethod {
	case order.PaymentOnline:
		placed, err = s.placeOnline(ctx, userID, draft, in)
	case order.PaymentWallet:
		placed, err = s.placeWallet(ctx, userID, draft, in)
	default:
		return order.Order{}, errors.Validation("unknown payment method %q", in.PaymentMethod)
	}
	if err != nil {
		return order.Order{}, err
	}

	// Post-creation bookkeeping must not fail the placed order.
	if placed.PromoCode != "" {
		if rerr := s.promos.Redeem(ctx, placed.PromoCode, in.AttemptID); rerr != nil {
			s.log.WithError(rerr).Warnf("redeem promo %s for order %s failed", placed.PromoCode, placed.ID)
		}
	}
	if cerr := s.carts.Clear(ctx, userID); cerr != nil {
		s.log.WithError(cerr).Warnf("clear cart for user %s failed", userID)
	}
	return placed, nil
}

func (s *Service) placeOnline(ctx context.Context, userID string, draft order.Order, in PlaceInput) (order.Order, error) {
	if s.gateway == nil {
		return order.Order{}, errors.Unavailable("card payments are not configured")
	}
	user, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return order.Order{}, err
	}
	if user.Email == "" {
		return order.Order{}, errors.Precondition("an email address is required for card payment")
	}
	reference := strings.TrimSpace(in.PaymentReference)
	if reference == "" {
		return order.Order{}, errors.Validation("payment reference is required for card payment")
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return order.Order{}, errors.Unavailable("payment gateway: %v", err)
	}
	switch result.Status {
	case payment.VerifySuccess:
	case payment.VerifyAbandoned:
		return order.Order{}, errors.Precondition("payment %s was cancelled; please try again", reference)
	default:
		return order.Order{}, errors.Precondition("payment %s is %s, not successful", reference, result.Status)
	}
	if result.AmountKobo < draft.Total*100 {
		return order.Order{}, errors.Precondition("payment %s settled below the order total", reference)
	}

	draft.PaymentReference = reference
	return s.orders.Create(ctx, draft)
}

// placeWallet debits first and creates the order second. A failed creation
// refunds the debit with a credit keyed to the same attempt, so the ledger
// nets to zero and the customer sees both entries.
func (s *Service) placeWallet(ctx context.Context, userID string, draft order.Order, in PlaceInput) (order.Order, error) {
	debitRef := "order_" + in.AttemptID
	debit, err := s.wallets.Debit(ctx, userID, draft.Total, "order payment", debitRef)
	if err != nil {
		return order.Order{}, err
	}

	draft.PaymentReference = debit.ID
	placed, err := s.orders.Create(ctx, draft)
	if err != nil {
		refundRef := "refund_" + in.AttemptID
		if _, rerr := s.wallets.Credit(ctx, userID, draft.Total, "order payment refund", refundRef); rerr != nil {
			s.log.WithError(rerr).Errorf("refund after failed order creation for attempt %s failed", in.AttemptID)
		}
		return order.Order{}, err
	}
	return placed, nil
}

// prepare loads and prices the cart lines, resolves the destination address
// and validates the optional promo. It is the shared front half of Quote and
// Place.
func (s *Service) prepare(ctx context.Context, userID string, in QuoteInput) ([]order.Item, account.Address, *promo.PromoCode, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, account.Address{}, nil, err
	}
	if c.Empty() {
		return nil, account.Address{}, nil, errors.Precondition("cart is empty")
	}

	items, err := s.priceItems(ctx, c)
	if err != nil {
		return nil, account.Address{}, nil, err
	}

	var addr account.Address
	if in.AddressID != "" {
		addr, err = s.accounts.GetAddress(ctx, userID, in.AddressID)
	} else {
		addr, err = s.accounts.DefaultAddress(ctx, userID)
	}
	if err != nil {
		return nil, account.Address{}, nil, err
	}

	var p *promo.PromoCode
	if in.PromoCode != "" {
		validated, err := s.promos.Validate(ctx, in.PromoCode, pricing.Subtotal(items))
		if err != nil {
			return nil, account.Address{}, nil, err
		}
		p = &validated
	}
	return items, addr, p, nil
}

// priceItems resolves every cart line against the catalog and snapshots the
// unit price. Unavailable products fail the whole checkout so the customer
// can fix the cart.
func (s *Service) priceItems(ctx context.Context, c cart.Cart) ([]order.Item, error) {
	items := make([]order.Item, 0, len(c.Items))
	for _, line := range c.Items {
		product, variation, err := s.catalog.Resolve(ctx, line.ProductID, line.VariationID)
		if err != nil {
			return nil, err
		}
		if !catalog.Available(product, variation) {
			return nil, errors.Precondition("%s is no longer available", product.Name)
		}

		unit := catalog.UnitPrice(product, variation)
		item := order.Item{
			ProductID:      line.ProductID,
			VariationID:    line.VariationID,
			Name:           product.Name,
			UnitPrice:      unit,
			Quantity:       line.Quantity,
			LineTotal:      unit * int64(line.Quantity),
			SpecialRequest: line.SpecialRequest,
		}
		if variation != nil {
			item.VariationName = variation.Name
		}
		items = append(items, item)
	}
	return items, nil
}

func snapshotAddress(addr account.Address) order.Address {
	return order.Address{
		Label:  addr.Label,
		Street: addr.Street,
		City:   addr.City,
		State:  addr.State,
		Phone:  addr.Phone,
	}
}
