// Package catalogsvc exposes the product catalog: customer browsing plus the
// admin CRUD surface.
package catalogsvc

import (
	"context"
	"strings"

	"github.com/marketrun/platform/internal/app/domain/catalog"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/pkg/logger"
)

// Service provides catalog operations.
type Service struct {
	store storage.CatalogStore
	log   *logger.Logger
}

// New creates the catalog service.
func New(store storage.CatalogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{store: store, log: log}
}

// ProductInput is the admin-supplied product payload.
type ProductInput struct {
	CategoryID  string
	Name        string
	Description string
	BasePrice   int64
	PriceRange  string
	ImageURL    string
	InStock     bool
	Fresh       bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.Validation("product name is required")
	}
	if in.BasePrice <= 0 {
		return errors.Validation("product price must be positive")
	}
	return nil
}

// CreateProduct adds a product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (catalog.Product, error) {
	if err := in.validate(); err != nil {
		return catalog.Product{}, err
	}
	p := catalog.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		BasePrice:   in.BasePrice,
		PriceRange:  in.PriceRange,
		ImageURL:    in.ImageURL,
		InStock:     in.InStock,
		Fresh:       in.Fresh,
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return catalog.Product{}, err
	}
	s.log.WithField("product_id", created.ID).Infof("product %q created", created.Name)
	return created, nil
}

// UpdateProduct replaces a product's editable fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (catalog.Product, error) {
	if err := in.validate(); err != nil {
		return catalog.Product{}, err
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.BasePrice = in.BasePrice
	p.PriceRange = in.PriceRange
	p.ImageURL = in.ImageURL
	p.InStock = in.InStock
	p.Fresh = in.Fresh
	return s.store.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product and its variations.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.store.DeleteProduct(ctx, id)
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id string) (catalog.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// List returns products, optionally filtered by category.
func (s *Service) List(ctx context.Context, categoryID string) ([]catalog.Product, error) {
	return s.store.ListProducts(ctx, categoryID)
}

// Categories returns all browsing categories.
func (s *Service) Categories(ctx context.Context) ([]catalog.Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateCategory adds a browsing category.
func (s *Service) CreateCategory(ctx context.Context, name, imageURL string) (catalog.Category, error) {
	if strings.TrimSpace(name) == "" {
		return catalog.Category{}, errors.Validation("category name is required")
	}
	return s.store.CreateCategory(ctx, catalog.Category{Name: strings.TrimSpace(name), ImageURL: imageURL})
}

// VariationInput is the admin-supplied variation payload.
type VariationInput struct {
	Name    string
	Price   int64
	InStock bool
}

// AddVariation attaches a purchasable variation to a product.
func (s *Service) AddVariation(ctx context.Context, productID string, in VariationInput) (catalog.Variation, error) {
	if strings.TrimSpace(in.Name) == "" {
		return catalog.Variation{}, errors.Validation("variation name is required")
	}
	if in.Price <= 0 {
		return catalog.Variation{}, errors.Validation("variation price must be positive")
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return catalog.Variation{}, err
	}
	v := catalog.Variation{
		ProductID: productID,
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		InStock:   in.InStock,
	}
	return s.store.CreateVariation(ctx, v)
}

// Variations lists a product's variations.
func (s *Service) Variations(ctx context.Context, productID string) ([]catalog.Variation, error) {
	return s.store.ListVariations(ctx, productID)
}

// Resolve loads a product and, when variationID is non-empty, its variation,
// enforcing that the variation belongs to the product.
func (s *Service) Resolve(ctx context.Context, productID, variationID string) (catalog.Product, *catalog.Variation, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return catalog.Product{}, nil, err
	}
	if variationID == "" {
		return p, nil, nil
	}
	v, err := s.store.GetVariation(ctx, variationID)
	if err != nil {
		return catalog.Product{}, nil, err
	}
	if v.ProductID != p.ID {
		return catalog.Product{}, nil, errors.Validation("variation %s does not belong to product %s", variationID, productID)
	}
	return p, &v, nil
}
