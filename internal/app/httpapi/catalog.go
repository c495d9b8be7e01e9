package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	apperrors "github.com/marketrun/platform/internal/errors"
)

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.app.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.app.Catalog.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.app.Catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *handler) listVariations(w http.ResponseWriter, r *http.Request) {
	variations, err := h.app.Catalog.Variations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, variations)
}

type productPayload struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   int64  `json:"base_price"`
	PriceRange  string `json:"price_range"`
	ImageURL    string `json:"image_url"`
	InStock     bool   `json:"in_stock"`
	Fresh       bool   `json:"fresh"`
}

func (p productPayload) input() catalogsvc.ProductInput {
	return catalogsvc.ProductInput{
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		PriceRange:  p.PriceRange,
		ImageURL:    p.ImageURL,
		InStock:     p.InStock,
		Fresh:       p.Fresh,
	}
}

func (h *handler) adminCreateCategory(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Name     string `json:"name"`
		ImageURL string `json:"image_url"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	category, err := h.app.Catalog.CreateCategory(r.Context(), payload.Name, payload.ImageURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var payload productPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	product, err := h.app.Catalog.CreateProduct(r.Context(), payload.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var payload productPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	product, err := h.app.Catalog.UpdateProduct(r.Context(), mux.Vars(r)["id"], payload.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *handler) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	if err := h.app.Catalog.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) adminAddVariation(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Name    string `json:"name"`
		Price   int64  `json:"price"`
		InStock bool   `json:"in_stock"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	variation, err := h.app.Catalog.AddVariation(r.Context(), mux.Vars(r)["id"], catalogsvc.VariationInput{
		Name:    payload.Name,
		Price:   payload.Price,
		InStock: payload.InStock,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, variation)
}
