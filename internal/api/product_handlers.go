package api

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/models"

	"github.com/gorilla/mux"
)

// ListProducts handles GET /api/products
// Query: category, subcategory, gender, brand, minPrice, maxPrice, color, size, search, sort, page, limit
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := catalog.ParsePaging(q)

	result, err := h.catalog.List(r.Context(), catalog.ParseDescriptor(q), page, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetProduct handles GET /api/products/{id}. The route is public, but a
// valid token attributes the view to its user.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var viewerID string
	if token := auth.BearerToken(r.Header.Get("Authorization")); token != "" {
		if user, err := h.auth.Authenticate(r.Context(), token); err == nil {
			viewerID = user.ID
		}
	}

	product, err := h.catalog.Get(r.Context(), id, viewerID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductCreate
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.catalog.Create(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductUpdate
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.catalog.Update(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}
