package httpx

import (
	"net/http"
	"strconv"

	"github.com/levelup/storefront/internal/domain/model"
	"github.com/levelup/storefront/internal/service"
)

// ProductHandlers handles catalog product requests.
type ProductHandlers struct {
	Svc *service.CatalogService
}

// List handles GET /api/products.
func (h *ProductHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts := model.ProductsListOptions{}
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Offset = n
		}
	}
	if raw := q.Get("q"); raw != "" {
		opts.Q = &raw
	}
	if raw := q.Get("category"); raw != "" {
		opts.Category = &raw
	}

	products, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if products == nil {
		products = []*model.Product{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

// Get handles GET /api/products/{code}.
func (h *ProductHandlers) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.Svc.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Product
	if !DecodeJSON(w, r, &req) {
		return
	}

	created, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/products/{code}.
func (h *ProductHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProductRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	updated, err := h.Svc.Update(r.Context(), r.PathValue("code"), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/products/{code}.
func (h *ProductHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Svc.Delete(r.Context(), r.PathValue("code"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errNotFound("product"),
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
