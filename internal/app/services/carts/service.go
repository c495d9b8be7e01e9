// Package carts manages each user's shopping cart.
package carts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketrun/platform/internal/app/domain/cart"
	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/pkg/logger"
)

// Service provides cart operations. It consults the catalog so out-of-stock
// or unknown selections never enter a cart.
type Service struct {
	store   storage.CartStore
	catalog *catalogsvc.Service
	log     *logger.Logger
}

// New creates the carts service.
func New(store storage.CartStore, catalog *catalogsvc.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("carts")
	}
	return &Service{store: store, catalog: catalog, log: log}
}

// Get returns the user's cart.
func (s *Service) Get(ctx context.Context, userID string) (cart.Cart, error) {
	return s.store.GetCart(ctx, userID)
}

// AddInput describes a product selection being added to the cart.
type AddInput struct {
	ProductID      string
	VariationID    string
	Quantity       int
	SpecialRequest string
}

// Add puts a selection in the cart. An existing line for the same product and
// variation absorbs the quantity instead of duplicating the line.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (cart.Cart, error) {
	if in.Quantity <= 0 {
		return cart.Cart{}, errors.Validation("quantity must be positive")
	}

	p, v, err := s.catalog.Resolve(ctx, in.ProductID, in.VariationID)
	if err != nil {
		return cart.Cart{}, err
	}
	if !catalog.Available(p, v) {
		return cart.Cart{}, errors.Precondition("%s is currently out of stock", p.Name)
	}

	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return cart.Cart{}, err
	}

	if idx := c.Find(in.ProductID, in.VariationID); idx >= 0 {
		c.Items[idx].Quantity += in.Quantity
		if req := strings.TrimSpace(in.SpecialRequest); req != "" {
			c.Items[idx].SpecialRequest = req
		}
	} else {
		c.Items = append(c.Items, cart.Item{
			ID:             uuid.NewString(),
			ProductID:      in.ProductID,
			VariationID:    in.VariationID,
			Quantity:       in.Quantity,
			SpecialRequest: strings.TrimSpace(in.SpecialRequest),
			AddedAt:        time.Now().UTC(),
		})
	}
	return s.store.PutCart(ctx, c)
}

// UpdateInput describes a change to an existing cart line. Nil fields leave
// the current value in place.
type UpdateInput struct {
	Quantity       *int
	VariationID    *string
	SpecialRequest *string
}

// UpdateItem changes quantity, variation or special request of a line.
// Setting quantity to zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, in UpdateInput) (cart.Cart, error) {
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return cart.Cart{}, err
	}

	idx := c.FindByID(itemID)
	if idx < 0 {
		return cart.Cart{}, errors.NotFound("cart item %s not found", itemID)
	}
	item := c.Items[idx]

	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return cart.Cart{}, errors.Validation("quantity must not be negative")
		}
		if *in.Quantity == 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return s.store.PutCart(ctx, c)
		}
		item.Quantity = *in.Quantity
	}

	if in.VariationID != nil && *in.VariationID != item.VariationID {
		p, v, err := s.catalog.Resolve(ctx, item.ProductID, *in.VariationID)
		if err != nil {
			return cart.Cart{}, err
		}
		if !catalog.Available(p, v) {
			return cart.Cart{}, errors.Precondition("%s is currently out of stock", p.Name)
		}
		item.VariationID = *in.VariationID
	}

	if in.SpecialRequest != nil {
		item.SpecialRequest = strings.TrimSpace(*in.SpecialRequest)
	}

	c.Items[idx] = item
	return s.store.PutCart(ctx, c)
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (cart.Cart, error) {
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return cart.Cart{}, err
	}
	idx := c.FindByID(itemID)
	if idx < 0 {
		return cart.Cart{}, errors.NotFound("cart item %s not found", itemID)
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return s.store.PutCart(ctx, c)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.ClearCart(ctx, userID)
}
