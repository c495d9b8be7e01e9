// Package rediscart implements the cart store on Redis. Carts are session
// state with no ledger semantics, so a key-value document with a TTL is the
// right shape for them.
package rediscart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/marketrun/platform/internal/app/domain/cart"
	"github.com/marketrun/platform/internal/app/storage"
)

// DefaultTTL is how long an untouched cart survives before expiring.
const DefaultTTL = 30 * 24 * time.Hour

// Store persists carts as JSON documents keyed by user id.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ storage.CartStore = (*Store)(nil)

// New creates a cart store over the given redis client. A non-positive ttl
// falls back to DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func key(userID string) string {
	return "cart:" + userID
}

func (s *Store) GetCart(ctx context.Context, userID string) (cart.Cart, error) {
	data, err := s.client.Get(ctx, key(userID)).Bytes()
	if err == redis.Nil {
		return cart.Cart{UserID: userID}, nil
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("get cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return cart.Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	c.UserID = userID
	return c, nil
}

func (s *Store) PutCart(ctx context.Context, c cart.Cart) (cart.Cart, error) {
	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, key(c.UserID), data, s.ttl).Err(); err != nil {
		return cart.Cart{}, fmt.Errorf("put cart: %w", err)
	}
	return c, nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
