// Package catalog defines the product reference data the shop sells.
package catalog

import "time"

// Category groups products for browsing.
type Category struct {
	ID        string
	Name      string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is a catalog entry. Prices are in whole naira. PriceRange is
// display-only and never authoritative for pricing.
type Product struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	BasePrice   int64
	PriceRange  string
	ImageURL    string
	InStock     bool
	Fresh       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variation is a purchasable option of a product, such as a size or grade.
// Its price and stock flag override the parent product's.
type Variation struct {
	ID        string
	ProductID string
	Name      string
	Price     int64
	InStock   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnitPrice resolves the effective unit price: the variation price when a
// variation is selected, else the product base price.
func UnitPrice(p Product, v *Variation) int64 {
	if v != nil {
		return v.Price
	}
	return p.BasePrice
}

// Available reports whether the selection can be added to a cart. A selected
// variation's stock flag overrides the product's.
func Available(p Product, v *Variation) bool {
	if v != nil {
		return v.InStock
	}
	return p.InStock
}
