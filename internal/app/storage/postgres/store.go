// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
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
	"github.com/marketrun/platform/internal/errors"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)
var _ storage.CartStore = (*Store)(nil)
var _ storage.PromoStore = (*Store)(nil)
var _ storage.WalletStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func notFoundIfNoRows(err error, notFound *errors.Error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u account.User) (account.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Email = strings.ToLower(u.Email)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, phone, password_hash, role, referral_code, referred_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Email, u.Name, u.Phone, u.PasswordHash, u.Role, u.ReferralCode, u.ReferredBy, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return account.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u account.User) (account.User, error) {
	u.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, name = $3, phone = $4, password_hash = $5, role = $6, referral_code = $7, referred_by = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, strings.ToLower(u.Email), u.Name, u.Phone, u.PasswordHash, u.Role, u.ReferralCode, u.ReferredBy, u.UpdatedAt)
	if err != nil {
		return account.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return account.User{}, errors.NotFound("user %s not found", u.ID)
	}
	return u, nil
}

const userColumns = `id, email, name, phone, password_hash, role, referral_code, referred_by, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (account.User, error) {
	var u account.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.ReferralCode, &u.ReferredBy, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (account.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return account.User{}, notFoundIfNoRows(err, errors.NotFound("user %s not found", id))
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return account.User{}, notFoundIfNoRows(err, errors.NotFound("user with email %s not found", email))
	}
	return u, nil
}

func (s *Store) GetUserByReferralCode(ctx context.Context, code string) (account.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE UPPER(referral_code) = UPPER($1)`, code))
	if err != nil {
		return account.User{}, notFoundIfNoRows(err, errors.NotFound("referral code %s not found", code))
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]account.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []account.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// --- AddressStore -----------------------------------------------------------

func (s *Store) CreateAddress(ctx context.Context, addr account.Address) (account.Address, error) {
	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return account.Address{}, err
	}
	defer tx.Rollback()

	if addr.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, addr.UserID); err != nil {
			return account.Address{}, err
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, label, street, city, state, country, phone, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, addr.ID, addr.UserID, addr.Label, addr.Street, addr.City, addr.State, addr.Country, addr.Phone, addr.IsDefault, addr.CreatedAt, addr.UpdatedAt)
	if err != nil {
		return account.Address{}, err
	}
	if err := tx.Commit(); err != nil {
		return account.Address{}, err
	}
	return addr, nil
}

func (s *Store) UpdateAddress(ctx context.Context, addr account.Address) (account.Address, error) {
	addr.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return account.Address{}, err
	}
	defer tx.Rollback()

	if addr.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND id <> $2`, addr.UserID, addr.ID); err != nil {
			return account.Address{}, err
		}
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE addresses
		SET label = $2, street = $3, city = $4, state = $5, country = $6, phone = $7, is_default = $8, updated_at = $9
		WHERE id = $1
	`, addr.ID, addr.Label, addr.Street, addr.City, addr.State, addr.Country, addr.Phone, addr.IsDefault, addr.UpdatedAt)
	if err != nil {
		return account.Address{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return account.Address{}, errors.NotFound("address %s not found", addr.ID)
	}
	if err := tx.Commit(); err != nil {
		return account.Address{}, err
	}
	return addr, nil
}

const addressColumns = `id, user_id, label, street, city, state, country, phone, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...interface{}) error }) (account.Address, error) {
	var a account.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.State, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) GetAddress(ctx context.Context, id string) (account.Address, error) {
	a, err := scanAddress(s.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		return account.Address{}, notFoundIfNoRows(err, errors.NotFound("address %s not found", id))
	}
	return a, nil
}

func (s *Store) ListAddresses(ctx context.Context, userID string) ([]account.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []account.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) DeleteAddress(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("address %s not found", id)
	}
	return nil
}

// --- CatalogStore -----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.ImageURL, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return catalog.Category{}, err
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, image_url, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

const productColumns = `id, category_id, name, description, base_price, price_range, image_url, in_stock, fresh, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.BasePrice, &p.PriceRange, &p.ImageURL, &p.InStock, &p.Fresh, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.CategoryID, p.Name, p.Description, p.BasePrice, p.PriceRange, p.ImageURL, p.InStock, p.Fresh, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, description = $4, base_price = $5, price_range = $6, image_url = $7, in_stock = $8, fresh = $9, updated_at = $10
		WHERE id = $1
	`, p.ID, p.CategoryID, p.Name, p.Description, p.BasePrice, p.PriceRange, p.ImageURL, p.InStock, p.Fresh, p.UpdatedAt)
	if err != nil {
		return catalog.Product{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Product{}, errors.NotFound("product %s not found", p.ID)
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return catalog.Product{}, notFoundIfNoRows(err, errors.NotFound("product %s not found", id))
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, categoryID string) ([]catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}
	if categoryID != "" {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("product %s not found", id)
	}
	return nil
}

func (s *Store) CreateVariation(ctx context.Context, v catalog.Variation) (catalog.Variation, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_variations (id, product_id, name, price, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.ProductID, v.Name, v.Price, v.InStock, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return catalog.Variation{}, err
	}
	return v, nil
}

func (s *Store) GetVariation(ctx context.Context, id string) (catalog.Variation, error) {
	var v catalog.Variation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, name, price, in_stock, created_at, updated_at
		FROM product_variations WHERE id = $1
	`, id).Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.InStock, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return catalog.Variation{}, notFoundIfNoRows(err, errors.NotFound("variation %s not found", id))
	}
	return v, nil
}

func (s *Store) ListVariations(ctx context.Context, productID string) ([]catalog.Variation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, name, price, in_stock, created_at, updated_at
		FROM product_variations WHERE product_id = $1 ORDER BY name
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Variation
	for rows.Next() {
		var v catalog.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.InStock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// --- CartStore --------------------------------------------------------------

func (s *Store) GetCart(ctx context.Context, userID string) (cart.Cart, error) {
	var (
		itemsRaw  []byte
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `SELECT items, updated_at FROM carts WHERE user_id = $1`, userID).Scan(&itemsRaw, &updatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return cart.Cart{UserID: userID}, nil
	}
	if err != nil {
		return cart.Cart{}, err
	}

	c := cart.Cart{UserID: userID, UpdatedAt: updatedAt}
	if err := json.Unmarshal(itemsRaw, &c.Items); err != nil {
		return cart.Cart{}, err
	}
	return c, nil
}

func (s *Store) PutCart(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	c.UpdatedAt = time.Now().UTC()
	itemsRaw, err := json.Marshal(c.Items)
	if err != nil {
		return cart.Cart{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`, c.UserID, itemsRaw, c.UpdatedAt)
	if err != nil {
		return cart.Cart{}, err
	}
	return c, nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}

// --- PromoStore -------------------------------------------------------------

const promoColumns = `code, discount_type, value, max_discount, minimum_order, expires_at, usage_limit, used_count, active, created_at, updated_at`

func scanPromo(row interface{ Scan(...interface{}) error }) (promo.PromoCode, error) {
	var p promo.PromoCode
	err := row.Scan(&p.Code, &p.DiscountType, &p.Value, &p.MaxDiscount, &p.MinimumOrder, &p.ExpiresAt, &p.UsageLimit, &p.UsedCount, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) CreatePromo(ctx context.Context, p promo.PromoCode) (promo.PromoCode, error) {
	p.Code = promo.Normalize(p.Code)
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promo_codes (`+promoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.Code, p.DiscountType, p.Value, p.MaxDiscount, p.MinimumOrder, p.ExpiresAt, p.UsageLimit, p.UsedCount, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return promo.PromoCode{}, err
	}
	return p, nil
}

func (s *Store) UpdatePromo(ctx context.Context, p promo.PromoCode) (promo.PromoCode, error) {
	p.Code = promo.Normalize(p.Code)
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE promo_codes
		SET discount_type = $2, value = $3, max_discount = $4, minimum_order = $5, expires_at = $6, usage_limit = $7, used_count = $8, active = $9, updated_at = $10
		WHERE code = $1
	`, p.Code, p.DiscountType, p.Value, p.MaxDiscount, p.MinimumOrder, p.ExpiresAt, p.UsageLimit, p.UsedCount, p.Active, p.UpdatedAt)
	if err != nil {
		return promo.PromoCode{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return promo.PromoCode{}, errors.NotFound("promo code %s not found", p.Code)
	}
	return p, nil
}

func (s *Store) GetPromoByCode(ctx context.Context, code string) (promo.PromoCode, error) {
	code = promo.Normalize(code)
	p, err := scanPromo(s.db.QueryRowContext(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code))
	if err != nil {
		return promo.PromoCode{}, notFoundIfNoRows(err, errors.NotFound("promo code %s not found", code))
	}
	return p, nil
}

func (s *Store) ListPromos(ctx context.Context) ([]promo.PromoCode, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promoColumns+` FROM promo_codes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []promo.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// RedeemPromo records the attempt and increments used_count in one
// transaction. The attempt insert is the idempotency guard: a conflict means
// the same checkout attempt already redeemed the code.
func (s *Store) RedeemPromo(ctx context.Context, code, attemptID string) (bool, error) {
	code = promo.Normalize(code)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO promo_redemptions (code, attempt_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (code, attempt_id) DO NOTHING
	`, code, attemptID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, nil
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = $2
		WHERE code = $1 AND used_count < usage_limit
	`, code, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, errors.Precondition("promo code %s has reached its usage limit", code)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// --- WalletStore ------------------------------------------------------------

const walletColumns = `id, user_id, type, amount, description, reference, status, created_at, updated_at`

func scanWalletTx(row interface{ Scan(...interface{}) error }) (wallet.Transaction, error) {
	var tx wallet.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Description, &tx.Reference, &tx.Status, &tx.CreatedAt, &tx.UpdatedAt)
	return tx, err
}

func (s *Store) CreateWalletTransaction(ctx context.Context, tx wallet.Transaction) (wallet.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet_transactions (`+walletColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, tx.ID, tx.UserID, tx.Type, tx.Amount, tx.Description, tx.Reference, tx.Status, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return wallet.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) UpdateWalletTransaction(ctx context.Context, tx wallet.Transaction) (wallet.Transaction, error) {
	tx.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET type = $2, amount = $3, description = $4, reference = $5, status = $6, updated_at = $7
		WHERE id = $1
	`, tx.ID, tx.Type, tx.Amount, tx.Description, tx.Reference, tx.Status, tx.UpdatedAt)
	if err != nil {
		return wallet.Transaction{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return wallet.Transaction{}, errors.NotFound("wallet transaction %s not found", tx.ID)
	}
	return tx, nil
}

func (s *Store) GetWalletTransaction(ctx context.Context, id string) (wallet.Transaction, error) {
	tx, err := scanWalletTx(s.db.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallet_transactions WHERE id = $1`, id))
	if err != nil {
		return wallet.Transaction{}, notFoundIfNoRows(err, errors.NotFound("wallet transaction %s not found", id))
	}
	return tx, nil
}

func (s *Store) GetWalletTransactionByReference(ctx context.Context, reference string) (wallet.Transaction, error) {
	tx, err := scanWalletTx(s.db.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallet_transactions WHERE reference = $1`, reference))
	if err != nil {
		return wallet.Transaction{}, notFoundIfNoRows(err, errors.NotFound("wallet transaction with reference %s not found", reference))
	}
	return tx, nil
}

func (s *Store) ListWalletTransactions(ctx context.Context, userID string) ([]wallet.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+walletColumns+` FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []wallet.Transaction
	for rows.Next() {
		tx, err := scanWalletTx(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (s *Store) ListPendingTopUps(ctx context.Context) ([]wallet.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+walletColumns+` FROM wallet_transactions
		WHERE type = $1 AND status = $2 AND reference <> ''
		ORDER BY created_at
	`, wallet.TypeCredit, wallet.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []wallet.Transaction
	for rows.Next() {
		tx, err := scanWalletTx(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// --- OrderStore -------------------------------------------------------------

const orderColumns = `id, user_id, items, address, payment_method, payment_reference, delivery_slot, subtotal, delivery_fee, delivery_time_fee, service_fee, discount, total, promo_code, status, tracking_steps, agent_name, agent_phone, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (order.Order, error) {
	var (
		o           order.Order
		itemsRaw    []byte
		addressRaw  []byte
		trackingRaw []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &itemsRaw, &addressRaw, &o.PaymentMethod, &o.PaymentReference, &o.DeliverySlot,
		&o.Subtotal, &o.DeliveryFee, &o.DeliveryTimeFee, &o.ServiceFee, &o.Discount, &o.Total, &o.PromoCode,
		&o.Status, &trackingRaw, &o.AgentName, &o.AgentPhone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(addressRaw, &o.Address); err != nil {
		return order.Order{}, err
	}
	if len(trackingRaw) > 0 {
		if err := json.Unmarshal(trackingRaw, &o.TrackingSteps); err != nil {
			return order.Order{}, err
		}
	}
	return o, nil
}

func marshalOrder(o order.Order) (items, address, tracking []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, err
	}
	if address, err = json.Marshal(o.Address); err != nil {
		return nil, nil, nil, err
	}
	if tracking, err = json.Marshal(o.TrackingSteps); err != nil {
		return nil, nil, nil, err
	}
	return items, address, tracking, nil
}

func (s *Store) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	itemsRaw, addressRaw, trackingRaw, err := marshalOrder(o)
	if err != nil {
		return order.Order{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, o.ID, o.UserID, itemsRaw, addressRaw, o.PaymentMethod, o.PaymentReference, o.DeliverySlot,
		o.Subtotal, o.DeliveryFee, o.DeliveryTimeFee, o.ServiceFee, o.Discount, o.Total, o.PromoCode,
		o.Status, trackingRaw, o.AgentName, o.AgentPhone, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	o.UpdatedAt = time.Now().UTC()

	itemsRaw, addressRaw, trackingRaw, err := marshalOrder(o)
	if err != nil {
		return order.Order{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET items = $2, address = $3, payment_method = $4, payment_reference = $5, delivery_slot = $6,
		    subtotal = $7, delivery_fee = $8, delivery_time_fee = $9, service_fee = $10, discount = $11,
		    total = $12, promo_code = $13, status = $14, tracking_steps = $15, agent_name = $16,
		    agent_phone = $17, updated_at = $18
		WHERE id = $1
	`, o.ID, itemsRaw, addressRaw, o.PaymentMethod, o.PaymentReference, o.DeliverySlot,
		o.Subtotal, o.DeliveryFee, o.DeliveryTimeFee, o.ServiceFee, o.Discount,
		o.Total, o.PromoCode, o.Status, trackingRaw, o.AgentName, o.AgentPhone, o.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return order.Order{}, errors.NotFound("order %s not found", o.ID)
	}
	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return order.Order{}, errors.NotFound("order %s not found", id)
		}
		return order.Order{}, err
	}
	return o, nil
}

func (s *Store) listOrders(ctx context.Context, where string, args ...interface{}) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	return s.listOrders(ctx, `WHERE user_id = $1`, userID)
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	return s.listOrders(ctx, `WHERE status = $1`, status)
}

func (s *Store) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	return s.listOrders(ctx, ``)
}
