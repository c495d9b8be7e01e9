// Package cart defines the shopping cart entity.
package cart

import "time"

// Item is one line in a cart. VariationID is empty when the base product is
// selected. Quantity is always positive.
type Item struct {
	ID             string
	ProductID      string
	VariationID    string
	Quantity       int
	SpecialRequest string
	AddedAt        time.Time
}

// Cart holds a user's current selection. It is session state, not an order:
// prices are resolved against the catalog at quote time.
type Cart struct {
	UserID    string
	Items     []Item
	UpdatedAt time.Time
}

// Find returns the index of the line matching product and variation, or -1.
// Add operations merge into an existing line rather than duplicating it.
func (c *Cart) Find(productID, variationID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.VariationID == variationID {
			return i
		}
	}
	return -1
}

// FindByID returns the index of the line with the given item ID, or -1.
func (c *Cart) FindByID(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.Items) == 0 }
