// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/cart"
	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/domain/wallet"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
)

// Store holds every aggregate in maps guarded by one lock.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users        map[string]account.User
	usersByEmail map[string]string

	addresses map[string]account.Address

	categories map[string]catalog.Category
	products   map[string]catalog.Product
	variations map[string]catalog.Variation

	carts map[string]cart.Cart

	promos      map[string]promo.PromoCode
	redemptions map[string]map[string]bool

	walletTxs      map[string]wallet.Transaction
	walletTxsByRef map[string]string

	orders map[string]order.Order
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)
var _ storage.CartStore = (*Store)(nil)
var _ storage.PromoStore = (*Store)(nil)
var _ storage.WalletStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:         1,
		users:          make(map[string]account.User),
		usersByEmail:   make(map[string]string),
		addresses:      make(map[string]account.Address),
		categories:     make(map[string]catalog.Category),
		products:       make(map[string]catalog.Product),
		variations:     make(map[string]catalog.Variation),
		carts:          make(map[string]cart.Cart),
		promos:         make(map[string]promo.PromoCode),
		redemptions:    make(map[string]map[string]bool),
		walletTxs:      make(map[string]wallet.Transaction),
		walletTxsByRef: make(map[string]string),
		orders:         make(map[string]order.Order),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u account.User) (account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return account.User{}, errors.Conflict("user with email %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u account.User) (account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return account.User{}, errors.NotFound("user %s not found", u.ID)
	}
	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	if !strings.EqualFold(original.Email, u.Email) {
		delete(s.usersByEmail, strings.ToLower(original.Email))
		s.usersByEmail[strings.ToLower(u.Email)] = u.ID
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return account.User{}, errors.NotFound("user %s not found", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return account.User{}, errors.NotFound("user with email %s not found", email)
	}
	return s.users[id], nil
}

func (s *Store) GetUserByReferralCode(_ context.Context, code string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.ReferralCode, code) {
			return u, nil
		}
	}
	return account.User{}, errors.NotFound("referral code %s not found", code)
}

func (s *Store) ListUsers(_ context.Context) ([]account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]account.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// AddressStore implementation -------------------------------------------------

func (s *Store) CreateAddress(_ context.Context, addr account.Address) (account.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr.ID == "" {
		addr.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	if addr.IsDefault {
		s.clearDefaultLocked(addr.UserID)
	}
	s.addresses[addr.ID] = addr
	return addr, nil
}

func (s *Store) UpdateAddress(_ context.Context, addr account.Address) (account.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.addresses[addr.ID]
	if !ok {
		return account.Address{}, errors.NotFound("address %s not found", addr.ID)
	}
	addr.CreatedAt = original.CreatedAt
	addr.UpdatedAt = time.Now().UTC()

	if addr.IsDefault && !original.IsDefault {
		s.clearDefaultLocked(addr.UserID)
	}
	s.addresses[addr.ID] = addr
	return addr, nil
}

func (s *Store) clearDefaultLocked(userID string) {
	for id, existing := range s.addresses {
		if existing.UserID == userID && existing.IsDefault {
			existing.IsDefault = false
			s.addresses[id] = existing
		}
	}
}

func (s *Store) GetAddress(_ context.Context, id string) (account.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.addresses[id]
	if !ok {
		return account.Address{}, errors.NotFound("address %s not found", id)
	}
	return addr, nil
}

func (s *Store) ListAddresses(_ context.Context, userID string) ([]account.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []account.Address
	for _, addr := range s.addresses {
		if addr.UserID == userID {
			result = append(result, addr)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteAddress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[id]; !ok {
		return errors.NotFound("address %s not found", id)
	}
	delete(s.addresses, id)
	return nil
}

// CatalogStore implementation -------------------------------------------------

func (s *Store) CreateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.products[p.ID]
	if !ok {
		return catalog.Product{}, errors.NotFound("product %s not found", p.ID)
	}
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, errors.NotFound("product %s not found", id)
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context, categoryID string) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []catalog.Product
	for _, p := range s.products {
		if categoryID == "" || p.CategoryID == categoryID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return errors.NotFound("product %s not found", id)
	}
	delete(s.products, id)
	for vid, v := range s.variations {
		if v.ProductID == id {
			delete(s.variations, vid)
		}
	}
	return nil
}

func (s *Store) CreateVariation(_ context.Context, v catalog.Variation) (catalog.Variation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[v.ProductID]; !ok {
		return catalog.Variation{}, errors.NotFound("product %s not found", v.ProductID)
	}
	if v.ID == "" {
		v.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.variations[v.ID] = v
	return v, nil
}

func (s *Store) GetVariation(_ context.Context, id string) (catalog.Variation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.variations[id]
	if !ok {
		return catalog.Variation{}, errors.NotFound("variation %s not found", id)
	}
	return v, nil
}

func (s *Store) ListVariations(_ context.Context, productID string) ([]catalog.Variation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []catalog.Variation
	for _, v := range s.variations {
		if v.ProductID == productID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CartStore implementation ----------------------------------------------------

func (s *Store) GetCart(_ context.Context, userID string) (cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return cart.Cart{UserID: userID}, nil
	}
	c.Items = append([]cart.Item(nil), c.Items...)
	return c, nil
}

func (s *Store) PutCart(_ context.Context, c cart.Cart) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.UpdatedAt = time.Now().UTC()
	stored := c
	stored.Items = append([]cart.Item(nil), c.Items...)
	s.carts[c.UserID] = stored
	return c, nil
}

func (s *Store) ClearCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

// PromoStore implementation ---------------------------------------------------

func (s *Store) CreatePromo(_ context.Context, p promo.PromoCode) (promo.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Code = promo.Normalize(p.Code)
	if _, exists := s.promos[p.Code]; exists {
		return promo.PromoCode{}, errors.Conflict("promo code %s already exists", p.Code)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.promos[p.Code] = p
	return p, nil
}

func (s *Store) UpdatePromo(_ context.Context, p promo.PromoCode) (promo.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Code = promo.Normalize(p.Code)
	original, ok := s.promos[p.Code]
	if !ok {
		return promo.PromoCode{}, errors.NotFound("promo code %s not found", p.Code)
	}
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.promos[p.Code] = p
	return p, nil
}

func (s *Store) GetPromoByCode(_ context.Context, code string) (promo.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.promos[promo.Normalize(code)]
	if !ok {
		return promo.PromoCode{}, errors.NotFound("promo code %s not found", promo.Normalize(code))
	}
	return p, nil
}

func (s *Store) ListPromos(_ context.Context) ([]promo.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]promo.PromoCode, 0, len(s.promos))
	for _, p := range s.promos {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (s *Store) RedeemPromo(_ context.Context, code, attemptID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = promo.Normalize(code)
	p, ok := s.promos[code]
	if !ok {
		return false, errors.NotFound("promo code %s not found", code)
	}

	attempts := s.redemptions[code]
	if attempts == nil {
		attempts = make(map[string]bool)
		s.redemptions[code] = attempts
	}
	if attempts[attemptID] {
		return false, nil
	}
	if p.UsedCount >= p.UsageLimit {
		return false, errors.Precondition("promo code %s has reached its usage limit", code)
	}

	attempts[attemptID] = true
	p.UsedCount++
	p.UpdatedAt = time.Now().UTC()
	s.promos[code] = p
	return true, nil
}

// WalletStore implementation --------------------------------------------------

func (s *Store) CreateWalletTransaction(_ context.Context, tx wallet.Transaction) (wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.Reference != "" {
		if _, exists := s.walletTxsByRef[tx.Reference]; exists {
			return wallet.Transaction{}, errors.Conflict("wallet transaction with reference %s already exists", tx.Reference)
		}
	}
	if tx.ID == "" {
		tx.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	s.walletTxs[tx.ID] = tx
	if tx.Reference != "" {
		s.walletTxsByRef[tx.Reference] = tx.ID
	}
	return tx, nil
}

func (s *Store) UpdateWalletTransaction(_ context.Context, tx wallet.Transaction) (wallet.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.walletTxs[tx.ID]
	if !ok {
		return wallet.Transaction{}, errors.NotFound("wallet transaction %s not found", tx.ID)
	}
	tx.CreatedAt = original.CreatedAt
	tx.UpdatedAt = time.Now().UTC()
	s.walletTxs[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetWalletTransaction(_ context.Context, id string) (wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.walletTxs[id]
	if !ok {
		return wallet.Transaction{}, errors.NotFound("wallet transaction %s not found", id)
	}
	return tx, nil
}

func (s *Store) GetWalletTransactionByReference(_ context.Context, reference string) (wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.walletTxsByRef[reference]
	if !ok {
		return wallet.Transaction{}, errors.NotFound("wallet transaction with reference %s not found", reference)
	}
	return s.walletTxs[id], nil
}

func (s *Store) ListWalletTransactions(_ context.Context, userID string) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []wallet.Transaction
	for _, tx := range s.walletTxs {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListPendingTopUps(_ context.Context) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []wallet.Transaction
	for _, tx := range s.walletTxs {
		if tx.Type == wallet.TypeCredit && tx.Status == wallet.StatusPending && tx.Reference != "" {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// OrderStore implementation ---------------------------------------------------

func (s *Store) CreateOrder(_ context.Context, o order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = s.nextIDLocked()
	} else if _, exists := s.orders[o.ID]; exists {
		return order.Order{}, errors.Conflict("order %s already exists", o.ID)
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	s.orders[o.ID] = cloneOrder(o)
	return o, nil
}

func (s *Store) UpdateOrder(_ context.Context, o order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.orders[o.ID]
	if !ok {
		return order.Order{}, errors.NotFound("order %s not found", o.ID)
	}
	o.CreatedAt = original.CreatedAt
	o.UpdatedAt = time.Now().UTC()
	s.orders[o.ID] = cloneOrder(o)
	return o, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, errors.NotFound("order %s not found", id)
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrders(_ context.Context, userID string) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			result = append(result, cloneOrder(o))
		}
	}
	sortOrders(result)
	return result, nil
}

func (s *Store) ListOrdersByStatus(_ context.Context, status order.Status) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []order.Order
	for _, o := range s.orders {
		if o.Status == status {
			result = append(result, cloneOrder(o))
		}
	}
	sortOrders(result)
	return result, nil
}

func (s *Store) ListAllOrders(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, cloneOrder(o))
	}
	sortOrders(result)
	return result, nil
}

func sortOrders(orders []order.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
}

func cloneOrder(o order.Order) order.Order {
	o.Items = append([]order.Item(nil), o.Items...)
	o.TrackingSteps = append([]order.TrackingStep(nil), o.TrackingSteps...)
	return o
}
