// Package storage declares the persistence interfaces the application
// services depend on. Implementations live in the memory, postgres, redis and
// supabase subpackages.
package storage

import (
	"context"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/cart"
	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/domain/wallet"
)

// UserStore persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, u account.User) (account.User, error)
	UpdateUser(ctx context.Context, u account.User) (account.User, error)
	GetUser(ctx context.Context, id string) (account.User, error)
	GetUserByEmail(ctx context.Context, email string) (account.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (account.User, error)
	ListUsers(ctx context.Context) ([]account.User, error)
}

// AddressStore persists delivery addresses.
type AddressStore interface {
	CreateAddress(ctx context.Context, addr account.Address) (account.Address, error)
	UpdateAddress(ctx context.Context, addr account.Address) (account.Address, error)
	GetAddress(ctx context.Context, id string) (account.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]account.Address, error)
	DeleteAddress(ctx context.Context, id string) error
}

// CatalogStore persists products, variations and categories.
type CatalogStore interface {
	CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)

	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListProducts(ctx context.Context, categoryID string) ([]catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateVariation(ctx context.Context, v catalog.Variation) (catalog.Variation, error)
	GetVariation(ctx context.Context, id string) (catalog.Variation, error)
	ListVariations(ctx context.Context, productID string) ([]catalog.Variation, error)
}

// CartStore persists per-user carts as whole documents. The cart is session
// state, which is why a key-value contract (and a redis implementation) fits.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (cart.Cart, error)
	PutCart(ctx context.Context, c cart.Cart) (cart.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// PromoStore persists promo codes and redemption bookkeeping.
type PromoStore interface {
	CreatePromo(ctx context.Context, p promo.PromoCode) (promo.PromoCode, error)
	UpdatePromo(ctx context.Context, p promo.PromoCode) (promo.PromoCode, error)
	GetPromoByCode(ctx context.Context, code string) (promo.PromoCode, error)
	ListPromos(ctx context.Context) ([]promo.PromoCode, error)

	// RedeemPromo increments the promo's used count exactly once per attempt
	// id. It reports false without error when the attempt was already
	// recorded, which makes checkout retries idempotent.
	RedeemPromo(ctx context.Context, code, attemptID string) (bool, error)
}

// WalletStore persists the wallet transaction ledger.
type WalletStore interface {
	CreateWalletTransaction(ctx context.Context, tx wallet.Transaction) (wallet.Transaction, error)
	UpdateWalletTransaction(ctx context.Context, tx wallet.Transaction) (wallet.Transaction, error)
	GetWalletTransaction(ctx context.Context, id string) (wallet.Transaction, error)
	GetWalletTransactionByReference(ctx context.Context, reference string) (wallet.Transaction, error)
	ListWalletTransactions(ctx context.Context, userID string) ([]wallet.Transaction, error)
	ListPendingTopUps(ctx context.Context) ([]wallet.Transaction, error)
}

// OrderStore persists orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o order.Order) (order.Order, error)
	UpdateOrder(ctx context.Context, o order.Order) (order.Order, error)
	GetOrder(ctx context.Context, id string) (order.Order, error)
	ListOrders(ctx context.Context, userID string) ([]order.Order, error)
	ListOrdersByStatus(ctx context.Context, status order.Status) ([]order.Order, error)
	ListAllOrders(ctx context.Context) ([]order.Order, error)
}
