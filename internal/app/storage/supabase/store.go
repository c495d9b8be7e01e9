// Package supabase implements the storage interfaces over the Supabase REST
// API, used by the hosted deployment where Supabase owns the schema.
package supabase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/cart"
	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/domain/wallet"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/database"
	"github.com/marketrun/platform/internal/errors"
)

// Store implements the storage interfaces over Supabase tables.
type Store struct {
	client *database.Client
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)
var _ storage.CartStore = (*Store)(nil)
var _ storage.PromoStore = (*Store)(nil)
var _ storage.WalletStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)

// New creates a store over the given Supabase client.
func New(client *database.Client) *Store {
	return &Store{client: client}
}

// Row types mirror the Supabase tables; column names match the postgres
// migrations so both backends share one schema.

type userRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code"`
	ReferredBy   string    `json:"referred_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserRow(u account.User) userRow {
	return userRow{
		ID: u.ID, Email: strings.ToLower(u.Email), Name: u.Name, Phone: u.Phone,
		PasswordHash: u.PasswordHash, Role: string(u.Role),
		ReferralCode: u.ReferralCode, ReferredBy: u.ReferredBy,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (r userRow) toDomain() account.User {
	return account.User{
		ID: r.ID, Email: r.Email, Name: r.Name, Phone: r.Phone,
		PasswordHash: r.PasswordHash, Role: account.Role(r.Role),
		ReferralCode: r.ReferralCode, ReferredBy: r.ReferredBy,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u account.User) (account.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	var rows []userRow
	if err := s.client.Insert(ctx, "users", toUserRow(u), &rows); err != nil {
		return account.User{}, err
	}
	if len(rows) == 0 {
		return u, nil
	}
	return rows[0].toDomain(), nil
}

func (s *Store) UpdateUser(ctx context.Context, u account.User) (account.User, error) {
	u.UpdatedAt = time.Now().UTC()
	var rows []userRow
	if err := s.client.Update(ctx, "users", database.Eq("id", u.ID), toUserRow(u), &rows); err != nil {
		return account.User{}, err
	}
	if len(rows) == 0 {
		return account.User{}, errors.NotFound("user %s not found", u.ID)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) getUserWhere(ctx context.Context, query, notFound string) (account.User, error) {
	var rows []userRow
	if err := s.client.Select(ctx, "users", query, &rows); err != nil {
		return account.User{}, err
	}
	if len(rows) == 0 {
		return account.User{}, errors.NotFound("%s", notFound)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetUser(ctx context.Context, id string) (account.User, error) {
	return s.getUserWhere(ctx, database.Eq("id", id), "user "+id+" not found")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	return s.getUserWhere(ctx, database.Eq("email", strings.ToLower(email)), "user with email "+email+" not found")
}

func (s *Store) GetUserByReferralCode(ctx context.Context, code string) (account.User, error) {
	return s.getUserWhere(ctx, database.Eq("referral_code", strings.ToUpper(code)), "referral code "+code+" not found")
}

func (s *Store) ListUsers(ctx context.Context) ([]account.User, error) {
	var rows []userRow
	if err := s.client.Select(ctx, "users", "order=created_at.asc", &rows); err != nil {
		return nil, err
	}
	result := make([]account.User, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- AddressStore -----------------------------------------------------------

type addressRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Label     string    `json:"label"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	Phone     string    `json:"phone"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAddressRow(a account.Address) addressRow {
	return addressRow{
		ID: a.ID, UserID: a.UserID, Label: a.Label, Street: a.Street,
		City: a.City, State: a.State, Country: a.Country, Phone: a.Phone,
		IsDefault: a.IsDefault, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (r addressRow) toDomain() account.Address {
	return account.Address{
		ID: r.ID, UserID: r.UserID, Label: r.Label, Street: r.Street,
		City: r.City, State: r.State, Country: r.Country, Phone: r.Phone,
		IsDefault: r.IsDefault, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) clearDefaultAddress(ctx context.Context, userID, exceptID string) error {
	query := database.Eq("user_id", userID) + "&" + database.Eq("is_default", "true")
	if exceptID != "" {
		query += "&id=neq." + exceptID
	}
	return s.client.Update(ctx, "addresses", query, map[string]interface{}{"is_default": false}, nil)
}

func (s *Store) CreateAddress(ctx context.Context, addr account.Address) (account.Address, error) {
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	if addr.IsDefault {
		if err := s.clearDefaultAddress(ctx, addr.UserID, ""); err != nil {
			return account.Address{}, err
		}
	}
	var rows []addressRow
	if err := s.client.Insert(ctx, "addresses", toAddressRow(addr), &rows); err != nil {
		return account.Address{}, err
	}
	return addr, nil
}

func (s *Store) UpdateAddress(ctx context.Context, addr account.Address) (account.Address, error) {
	addr.UpdatedAt = time.Now().UTC()
	if addr.IsDefault {
		if err := s.clearDefaultAddress(ctx, addr.UserID, addr.ID); err != nil {
			return account.Address{}, err
		}
	}
	var rows []addressRow
	if err := s.client.Update(ctx, "addresses", database.Eq("id", addr.ID), toAddressRow(addr), &rows); err != nil {
		return account.Address{}, err
	}
	if len(rows) == 0 {
		return account.Address{}, errors.NotFound("address %s not found", addr.ID)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetAddress(ctx context.Context, id string) (account.Address, error) {
	var rows []addressRow
	if err := s.client.Select(ctx, "addresses", database.Eq("id", id), &rows); err != nil {
		return account.Address{}, err
	}
	if len(rows) == 0 {
		return account.Address{}, errors.NotFound("address %s not found", id)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) ListAddresses(ctx context.Context, userID string) ([]account.Address, error) {
	var rows []addressRow
	if err := s.client.Select(ctx, "addresses", database.Eq("user_id", userID)+"&order=created_at.asc", &rows); err != nil {
		return nil, err
	}
	result := make([]account.Address, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteAddress(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "addresses", database.Eq("id", id))
}

// --- CatalogStore -----------------------------------------------------------

type categoryRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type productRow struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   int64     `json:"base_price"`
	PriceRange  string    `json:"price_range"`
	ImageURL    string    `json:"image_url"`
	InStock     bool      `json:"in_stock"`
	Fresh       bool      `json:"fresh"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductRow(p catalog.Product) productRow {
	return productRow{
		ID: p.ID, CategoryID: p.CategoryID, Name: p.Name, Description: p.Description,
		BasePrice: p.BasePrice, PriceRange: p.PriceRange, ImageURL: p.ImageURL,
		InStock: p.InStock, Fresh: p.Fresh, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (r productRow) toDomain() catalog.Product {
	return catalog.Product{
		ID: r.ID, CategoryID: r.CategoryID, Name: r.Name, Description: r.Description,
		BasePrice: r.BasePrice, PriceRange: r.PriceRange, ImageURL: r.ImageURL,
		InStock: r.InStock, Fresh: r.Fresh, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type variationRow struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	InStock   bool      `json:"in_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r variationRow) toDomain() catalog.Variation {
	return catalog.Variation{
		ID: r.ID, ProductID: r.ProductID, Name: r.Name, Price: r.Price,
		InStock: r.InStock, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	row := categoryRow{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	if err := s.client.Insert(ctx, "categories", row, nil); err != nil {
		return catalog.Category{}, err
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var rows []categoryRow
	if err := s.client.Select(ctx, "categories", "order=name.asc", &rows); err != nil {
		return nil, err
	}
	result := make([]catalog.Category, 0, len(rows))
	for _, r := range rows {
		result = append(result, catalog.Category{ID: r.ID, Name: r.Name, ImageURL: r.ImageURL, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt})
	}
	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.client.Insert(ctx, "products", toProductRow(p), nil); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.UpdatedAt = time.Now().UTC()
	var rows []productRow
	if err := s.client.Update(ctx, "products", database.Eq("id", p.ID), toProductRow(p), &rows); err != nil {
		return catalog.Product{}, err
	}
	if len(rows) == 0 {
		return catalog.Product{}, errors.NotFound("product %s not found", p.ID)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var rows []productRow
	if err := s.client.Select(ctx, "products", database.Eq("id", id), &rows); err != nil {
		return catalog.Product{}, err
	}
	if len(rows) == 0 {
		return catalog.Product{}, errors.NotFound("product %s not found", id)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) ListProducts(ctx context.Context, categoryID string) ([]catalog.Product, error) {
	query := "order=name.asc"
	if categoryID != "" {
		query = database.Eq("category_id", categoryID) + "&" + query
	}
	var rows []productRow
	if err := s.client.Select(ctx, "products", query, &rows); err != nil {
		return nil, err
	}
	result := make([]catalog.Product, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "products", database.Eq("id", id))
}

func (s *Store) CreateVariation(ctx context.Context, v catalog.Variation) (catalog.Variation, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	row := variationRow{ID: v.ID, ProductID: v.ProductID, Name: v.Name, Price: v.Price, InStock: v.InStock, CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt}
	if err := s.client.Insert(ctx, "product_variations", row, nil); err != nil {
		return catalog.Variation{}, err
	}
	return v, nil
}

func (s *Store) GetVariation(ctx context.Context, id string) (catalog.Variation, error) {
	var rows []variationRow
	if err := s.client.Select(ctx, "product_variations", database.Eq("id", id), &rows); err != nil {
		return catalog.Variation{}, err
	}
	if len(rows) == 0 {
		return catalog.Variation{}, errors.NotFound("variation %s not found", id)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) ListVariations(ctx context.Context, productID string) ([]catalog.Variation, error) {
	var rows []variationRow
	if err := s.client.Select(ctx, "product_variations", database.Eq("product_id", productID)+"&order=name.asc", &rows); err != nil {
		return nil, err
	}
	result := make([]catalog.Variation, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- CartStore --------------------------------------------------------------

type cartRow struct {
	UserID    string      `json:"user_id"`
	Items     []cart.Item `json:"items"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (s *Store) GetCart(ctx context.Context, userID string) (cart.Cart, error) {
	var rows []cartRow
	if err := s.client.Select(ctx, "carts", database.Eq("user_id", userID), &rows); err != nil {
		return cart.Cart{}, err
	}
	if len(rows) == 0 {
		return cart.Cart{UserID: userID}, nil
	}
	return cart.Cart{UserID: userID, Items: rows[0].Items, UpdatedAt: rows[0].UpdatedAt}, nil
}

func (s *Store) PutCart(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	c.UpdatedAt = time.Now().UTC()
	row := cartRow{UserID: c.UserID, Items: c.Items, UpdatedAt: c.UpdatedAt}

	// Upsert: patch first, insert when the cart row does not exist yet.
	var updated []cartRow
	if err := s.client.Update(ctx, "carts", database.Eq("user_id", c.UserID), row, &updated); err != nil {
		return cart.Cart{}, err
	}
	if len(updated) == 0 {
		if err := s.client.Insert(ctx, "carts", row, nil); err != nil {
			return cart.Cart{}, err
		}
	}
	return c, nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	return s.client.Delete(ctx, "carts", database.Eq("user_id", userID))
}

// --- PromoStore -------------------------------------------------------------

type promoRow struct {
	Code         string    `json:"code"`
	DiscountType string    `json:"discount_type"`
	Value        int64     `json:"value"`
	MaxDiscount  int64     `json:"max_discount"`
	MinimumOrder int64     `json:"minimum_order"`
	ExpiresAt    time.Time `json:"expires_at"`
	UsageLimit   int       `json:"usage_limit"`
	UsedCount    int       `json:"used_count"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toPromoRow(p promo.PromoCode) promoRow {
	return promoRow{
		Code: p.Code, DiscountType: string(p.DiscountType), Value: p.Value,
		MaxDiscount: p.MaxDiscount, MinimumOrder: p.MinimumOrder, ExpiresAt: p.ExpiresAt,
		UsageLimit: p.UsageLimit, UsedCount: p.UsedCount, Active: p.Active,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (r promoRow) toDomain() promo.PromoCode {
	return promo.PromoCode{
		Code: r.Code, DiscountType: promo.DiscountType(r.DiscountType), Value: r.Value,
		MaxDiscount: r.MaxDiscount, MinimumOrder: r.MinimumOrder, ExpiresAt: r.ExpiresAt,
		UsageLimit: r.UsageLimit, UsedCount: r.UsedCount, Active: r.Active,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreatePromo(ctx context.Context, p promo.PromoCode) (promo.PromoCode, error) {
	p.Code = promo.Normalize(p.Code)
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.client.Insert(ctx, "promo_codes", toPromoRow(p), nil); err != nil {
		return promo.PromoCode{}, err
	}
	return p, nil
}

func (s *Store) UpdatePromo(ctx context.Context, p promo.PromoCode) (promo.PromoCode, error) {
	p.Code = promo.Normalize(p.Code)
	p.UpdatedAt = time.Now().UTC()
	var rows []promoRow
	if err := s.client.Update(ctx, "promo_codes", database.Eq("code", p.Code), toPromoRow(p), &rows); err != nil {
		return promo.PromoCode{}, err
	}
	if len(rows) == 0 {
		return promo.PromoCode{}, errors.NotFound("promo code %s not found", p.Code)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetPromoByCode(ctx context.Context, code string) (promo.PromoCode, error) {
	code = promo.Normalize(code)
	var rows []promoRow
	if err := s.client.Select(ctx, "promo_codes", database.Eq("code", code), &rows); err != nil {
		return promo.PromoCode{}, err
	}
	if len(rows) == 0 {
		return promo.PromoCode{}, errors.NotFound("promo code %s not found", code)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) ListPromos(ctx context.Context) ([]promo.PromoCode, error) {
	var rows []promoRow
	if err := s.client.Select(ctx, "promo_codes", "order=code.asc", &rows); err != nil {
		return nil, err
	}
	result := make([]promo.PromoCode, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// RedeemPromo delegates to the redeem_promo database function so the attempt
// insert and the counter increment commit atomically on the Supabase side.
func (s *Store) RedeemPromo(ctx context.Context, code, attemptID string) (bool, error) {
	var redeemed bool
	payload := map[string]string{"p_code": promo.Normalize(code), "p_attempt_id": attemptID}
	if err := s.client.Insert(ctx, "rpc/redeem_promo", payload, &redeemed); err != nil {
		if strings.Contains(err.Error(), "usage limit") {
			return false, errors.Precondition("promo code %s has reached its usage limit", promo.Normalize(code))
		}
		return false, err
	}
	return redeemed, nil
}

// --- WalletStore ------------------------------------------------------------

type walletTxRow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toWalletTxRow(tx wallet.Transaction) walletTxRow {
	return walletTxRow{
		ID: tx.ID, UserID: tx.UserID, Type: string(tx.Type), Amount: tx.Amount,
		Description: tx.Description, Reference: tx.Reference, Status: string(tx.Status),
		CreatedAt: tx.CreatedAt, UpdatedAt: tx.UpdatedAt,
	}
}

func (r walletTxRow) toDomain() wallet.Transaction {
	return wallet.Transaction{
		ID: r.ID, UserID: r.UserID, Type: wallet.TransactionType(r.Type), Amount: r.Amount,
		Description: r.Description, Reference: r.Reference, Status: wallet.TransactionStatus(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateWalletTransaction(ctx context.Context, tx wallet.Transaction) (wallet.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	if err := s.client.Insert(ctx, "wallet_transactions", toWalletTxRow(tx), nil); err != nil {
		return wallet.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) UpdateWalletTransaction(ctx context.Context, tx wallet.Transaction) (wallet.Transaction, error) {
	tx.UpdatedAt = time.Now().UTC()
	var rows []walletTxRow
	if err := s.client.Update(ctx, "wallet_transactions", database.Eq("id", tx.ID), toWalletTxRow(tx), &rows); err != nil {
		return wallet.Transaction{}, err
	}
	if len(rows) == 0 {
		return wallet.Transaction{}, errors.NotFound("wallet transaction %s not found", tx.ID)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) getWalletTxWhere(ctx context.Context, query, notFound string) (wallet.Transaction, error) {
	var rows []walletTxRow
	if err := s.client.Select(ctx, "wallet_transactions", query, &rows); err != nil {
		return wallet.Transaction{}, err
	}
	if len(rows) == 0 {
		return wallet.Transaction{}, errors.NotFound("%s", notFound)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetWalletTransaction(ctx context.Context, id string) (wallet.Transaction, error) {
	return s.getWalletTxWhere(ctx, database.Eq("id", id), "wallet transaction "+id+" not found")
}

func (s *Store) GetWalletTransactionByReference(ctx context.Context, reference string) (wallet.Transaction, error) {
	return s.getWalletTxWhere(ctx, database.Eq("reference", reference), "wallet transaction with reference "+reference+" not found")
}

func (s *Store) ListWalletTransactions(ctx context.Context, userID string) ([]wallet.Transaction, error) {
	var rows []walletTxRow
	if err := s.client.Select(ctx, "wallet_transactions", database.Eq("user_id", userID)+"&order=created_at.asc", &rows); err != nil {
		return nil, err
	}
	result := make([]wallet.Transaction, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) ListPendingTopUps(ctx context.Context) ([]wallet.Transaction, error) {
	query := database.Eq("type", string(wallet.TypeCredit)) + "&" +
		database.Eq("status", string(wallet.StatusPending)) +
		"&reference=neq.&order=created_at.asc"
	var rows []walletTxRow
	if err := s.client.Select(ctx, "wallet_transactions", query, &rows); err != nil {
		return nil, err
	}
	result := make([]wallet.Transaction, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- OrderStore -------------------------------------------------------------

type orderRow struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	Items            []order.Item         `json:"items"`
	Address          order.Address        `json:"address"`
	PaymentMethod    string               `json:"payment_method"`
	PaymentReference string               `json:"payment_reference"`
	DeliverySlot     string               `json:"delivery_slot"`
	Subtotal         int64                `json:"subtotal"`
	DeliveryFee      int64                `json:"delivery_fee"`
	DeliveryTimeFee  int64                `json:"delivery_time_fee"`
	ServiceFee       int64                `json:"service_fee"`
	Discount         int64                `json:"discount"`
	Total            int64                `json:"total"`
	PromoCode        string               `json:"promo_code"`
	Status           string               `json:"status"`
	TrackingSteps    []order.TrackingStep `json:"tracking_steps"`
	AgentName        string               `json:"agent_name"`
	AgentPhone       string               `json:"agent_phone"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func toOrderRow(o order.Order) orderRow {
	return orderRow{
		ID: o.ID, UserID: o.UserID, Items: o.Items, Address: o.Address,
		PaymentMethod: string(o.PaymentMethod), PaymentReference: o.PaymentReference,
		DeliverySlot: o.DeliverySlot, Subtotal: o.Subtotal, DeliveryFee: o.DeliveryFee,
		DeliveryTimeFee: o.DeliveryTimeFee, ServiceFee: o.ServiceFee, Discount: o.Discount,
		Total: o.Total, PromoCode: o.PromoCode, Status: string(o.Status),
		TrackingSteps: o.TrackingSteps, AgentName: o.AgentName, AgentPhone: o.AgentPhone,
		CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
}

func (r orderRow) toDomain() order.Order {
	return order.Order{
		ID: r.ID, UserID: r.UserID, Items: r.Items, Address: r.Address,
		PaymentMethod: order.PaymentMethod(r.PaymentMethod), PaymentReference: r.PaymentReference,
		DeliverySlot: r.DeliverySlot, Subtotal: r.Subtotal, DeliveryFee: r.DeliveryFee,
		DeliveryTimeFee: r.DeliveryTimeFee, ServiceFee: r.ServiceFee, Discount: r.Discount,
		Total: r.Total, PromoCode: r.PromoCode, Status: order.Status(r.Status),
		TrackingSteps: r.TrackingSteps, AgentName: r.AgentName, AgentPhone: r.AgentPhone,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := s.client.Insert(ctx, "orders", toOrderRow(o), nil); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	o.UpdatedAt = time.Now().UTC()
	var rows []orderRow
	if err := s.client.Update(ctx, "orders", database.Eq("id", o.ID), toOrderRow(o), &rows); err != nil {
		return order.Order{}, err
	}
	if len(rows) == 0 {
		return order.Order{}, errors.NotFound("order %s not found", o.ID)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	var rows []orderRow
	if err := s.client.Select(ctx, "orders", database.Eq("id", id), &rows); err != nil {
		return order.Order{}, err
	}
	if len(rows) == 0 {
		return order.Order{}, errors.NotFound("order %s not found", id)
	}
	return rows[0].toDomain(), nil
}

func (s *Store) selectOrders(ctx context.Context, query string) ([]order.Order, error) {
	var rows []orderRow
	if err := s.client.Select(ctx, "orders", query, &rows); err != nil {
		return nil, err
	}
	result := make([]order.Order, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	return s.selectOrders(ctx, database.Eq("user_id", userID)+"&order=created_at.desc")
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	return s.selectOrders(ctx, database.Eq("status", string(status))+"&order=created_at.desc")
}

func (s *Store) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	return s.selectOrders(ctx, "order=created_at.desc")
}
