package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/pricing"
	"github.com/marketrun/platform/internal/app/services/accounts"
	"github.com/marketrun/platform/internal/app/services/carts"
	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	orderssvc "github.com/marketrun/platform/internal/app/services/orders"
	promossvc "github.com/marketrun/platform/internal/app/services/promos"
	walletssvc "github.com/marketrun/platform/internal/app/services/wallets"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/app/storage/memory"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/payment"
)

type stubGateway struct {
	verify     payment.VerifyResult
	verifyErr  error
	lastAmount int64
}

func (g *stubGateway) Initialize(_ context.Context, _ string, amountNaira int64, reference string) (payment.InitResult, error) {
	g.lastAmount = amountNaira
	return payment.InitResult{AuthorizationURL: "https://pay.test/" + reference, Reference: reference}, nil
}

func (g *stubGateway) Verify(_ context.Context, _ string) (payment.VerifyResult, error) {
	if g.verifyErr != nil {
		return payment.VerifyResult{}, g.verifyErr
	}
	return g.verify, nil
}

// failingOrderStore forces order creation to fail so the wallet compensation
// path can be exercised.
type failingOrderStore struct {
	storage.OrderStore
}

func (s failingOrderStore) CreateOrder(context.Context, order.Order) (order.Order, error) {
	return order.Order{}, errors.Internal("create order", nil)
}

type fixture struct {
	store    *memory.Store
	accounts *accounts.Service
	carts    *carts.Service
	promos   *promossvc.Service
	wallets  *walletssvc.Service
	orders   *orderssvc.Service
	checkout *Service
	gateway  *stubGateway
	userID   string
}

func newFixture(t *testing.T, orderStore storage.OrderStore) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	if orderStore == nil {
		orderStore = store
	}

	acctSvc := accounts.New(store, store, nil)
	catalogSvc := catalogsvc.New(store, nil)
	cartSvc := carts.New(store, catalogSvc, nil)
	promoSvc := promossvc.New(store, nil)
	gw := &stubGateway{}
	walletSvc := walletssvc.New(store, gw, nil)
	orderSvc := orderssvc.New(orderStore, nil, nil)

	svc := New(Deps{
		Accounts: acctSvc,
		Catalog:  catalogSvc,
		Carts:    cartSvc,
		Promos:   promoSvc,
		Wallets:  walletSvc,
		Orders:   orderSvc,
		Gateway:  gw,
	})

	user, err := acctSvc.Register(ctx, accounts.RegisterInput{
		Email:    "ade@example.com",
		Name:     "Ade",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := acctSvc.AddAddress(ctx, user.ID, accounts.AddressInput{
		Street: "12 Adeola Odeku", City: "Victoria Island", State: "Lagos", Country: "Nigeria",
	}); err != nil {
		t.Fatalf("add address: %v", err)
	}

	product, err := catalogSvc.CreateProduct(ctx, catalogsvc.ProductInput{
		Name: "Ofada Rice (5kg)", BasePrice: 2500, InStock: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := cartSvc.Add(ctx, user.ID, carts.AddInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	return &fixture{
		store:    store,
		accounts: acctSvc,
		carts:    cartSvc,
		promos:   promoSvc,
		wallets:  walletSvc,
		orders:   orderSvc,
		checkout: svc,
		gateway:  gw,
		userID:   user.ID,
	}
}

func TestQuoteBreakdown(t *testing.T) {
	f := newFixture(t, nil)
	q, err := f.checkout.Quote(context.Background(), f.userID, QuoteInput{Slot: pricing.SlotSoonest})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 5000 subtotal + 2000 delivery + 500 slot + 50 service fee.
	if q.Total != 7550 {
		t.Fatalf("total: got %d, want 7550", q.Total)
	}
}

func TestPlaceWalletSuccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.promos.Create(ctx, promossvc.CreateInput{
		Code:         "SAVE300",
		DiscountType: promo.DiscountFlat,
		Value:        300,
		ExpiresAt:    time.Now().Add(time.Hour),
		UsageLimit:   10,
	}); err != nil {
		t.Fatalf("create promo: %v", err)
	}
	if _, err := f.wallets.Credit(ctx, f.userID, 10000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	placed, err := f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:     "attempt-1",
		Slot:          pricing.SlotSoonest,
		PromoCode:     "save300",
		PaymentMethod: order.PaymentWallet,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if placed.Total != 7250 {
		t.Fatalf("total: got %d, want 7250", placed.Total)
	}
	if placed.Status != order.StatusPending {
		t.Fatalf("status: %s", placed.Status)
	}
	if placed.Discount != 300 || placed.PromoCode != "SAVE300" {
		t.Fatalf("promo not applied: %+v", placed)
	}

	balance, _ := f.wallets.Balance(ctx, f.userID)
	if balance != 2750 {
		t.Fatalf("balance after debit: %d", balance)
	}

	c, err := f.carts.Get(ctx, f.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if !c.Empty() {
		t.Fatal("cart should be cleared after checkout")
	}

	p, _ := f.store.GetPromoByCode(ctx, "SAVE300")
	if p.UsedCount != 1 {
		t.Fatalf("promo used count: %d", p.UsedCount)
	}
}

func TestPlaceWalletInsufficientFunds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.wallets.Credit(ctx, f.userID, 3000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:     "attempt-1",
		Slot:          pricing.SlotNextDay,
		PaymentMethod: order.PaymentWallet,
	})
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// Nothing was created and nothing was debited.
	if balance, _ := f.wallets.Balance(ctx, f.userID); balance != 3000 {
		t.Fatalf("balance changed: %d", balance)
	}
	list, _ := f.store.ListOrders(ctx, f.userID)
	if len(list) != 0 {
		t.Fatalf("orders created: %d", len(list))
	}
}

func TestPlaceWalletRefundsOnOrderFailure(t *testing.T) {
	base := memory.New()
	f := newFixture(t, failingOrderStore{base})
	ctx := context.Background()

	if _, err := f.wallets.Credit(ctx, f.userID, 10000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:     "attempt-1",
		Slot:          pricing.SlotNextDay,
		PaymentMethod: order.PaymentWallet,
	})
	if err == nil {
		t.Fatal("expected order creation failure")
	}

	// The debit was compensated; the ledger shows both entries and nets out.
	balance, _ := f.wallets.Balance(ctx, f.userID)
	if balance != 10000 {
		t.Fatalf("balance after refund: %d", balance)
	}
	txs, _ := f.wallets.Transactions(ctx, f.userID)
	if len(txs) != 3 {
		t.Fatalf("ledger entries: %d", len(txs))
	}
}

func TestPlaceRetryAfterSuccessCannotDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.wallets.Credit(ctx, f.userID, 20000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	in := PlaceInput{AttemptID: "attempt-1", Slot: pricing.SlotNextDay, PaymentMethod: order.PaymentWallet}
	if _, err := f.checkout.Place(ctx, f.userID, in); err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := f.checkout.Place(ctx, f.userID, in); err == nil {
		t.Fatal("replayed attempt should fail")
	}

	list, _ := f.store.ListOrders(ctx, f.userID)
	if len(list) != 1 {
		t.Fatalf("orders after retry: %d", len(list))
	}
}

func TestPlaceOnlineRequiresGatewaySuccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.gateway.verify = payment.VerifyResult{Status: payment.VerifyPending}
	_, err := f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:        "attempt-1",
		Slot:             pricing.SlotNextDay,
		PaymentMethod:    order.PaymentOnline,
		PaymentReference: "order_attempt-1",
	})
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("pending payment should block order, got %v", err)
	}

	f.gateway.verify = payment.VerifyResult{Status: payment.VerifySuccess, AmountKobo: 100000000}
	placed, err := f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:        "attempt-1",
		Slot:             pricing.SlotNextDay,
		PaymentMethod:    order.PaymentOnline,
		PaymentReference: "order_attempt-1",
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if placed.PaymentReference != "order_attempt-1" {
		t.Fatalf("payment reference: %q", placed.PaymentReference)
	}
	if placed.PaymentMethod != order.PaymentOnline {
		t.Fatalf("payment method: %s", placed.PaymentMethod)
	}
}

func TestPlaceOnlineRejectsShortPayment(t *testing.T) {
	f := newFixture(t, nil)
	// Order total is 7050 for next_day; gateway settled 10 naira.
	f.gateway.verify = payment.VerifyResult{Status: payment.VerifySuccess, AmountKobo: 1000}
	_, err := f.checkout.Place(context.Background(), f.userID, PlaceInput{
		AttemptID:        "attempt-1",
		Slot:             pricing.SlotNextDay,
		PaymentMethod:    order.PaymentOnline,
		PaymentReference: "ref-1",
	})
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("short payment should block order, got %v", err)
	}
}

func TestPlaceOutOfServiceDestination(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	addr, err := f.accounts.AddAddress(ctx, f.userID, accounts.AddressInput{
		Street: "1 High St", City: "Accra", State: "Greater Accra", Country: "Ghana",
	})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	if _, err := f.wallets.Credit(ctx, f.userID, 50000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err = f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:     "attempt-1",
		AddressID:     addr.ID,
		Slot:          pricing.SlotNextDay,
		PaymentMethod: order.PaymentWallet,
	})
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("expected out of service rejection, got %v", err)
	}
	// The wallet must not be touched for an unserviceable destination.
	if balance, _ := f.wallets.Balance(ctx, f.userID); balance != 50000 {
		t.Fatalf("balance changed: %d", balance)
	}
}

func TestBeginOnlinePaymentInitializesForTotal(t *testing.T) {
	f := newFixture(t, nil)
	init, q, err := f.checkout.BeginOnlinePayment(context.Background(), f.userID, QuoteInput{Slot: pricing.SlotSoonest}, "attempt-1")
	if err != nil {
		t.Fatalf("begin online payment: %v", err)
	}
	if f.gateway.lastAmount != q.Total {
		t.Fatalf("initialized amount %d, quote total %d", f.gateway.lastAmount, q.Total)
	}
	if init.Reference != "order_attempt-1" {
		t.Fatalf("reference: %q", init.Reference)
	}
}

func TestPlaceEmptyCart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.carts.Clear(ctx, f.userID); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	_, err := f.checkout.Place(ctx, f.userID, PlaceInput{
		AttemptID:     "attempt-1",
		Slot:          pricing.SlotNextDay,
		PaymentMethod: order.PaymentWallet,
	})
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("expected empty cart rejection, got %v", err)
	}
}
