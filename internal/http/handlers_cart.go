package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/levelup/storefront/config"
	"github.com/levelup/storefront/internal/domain/model"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/service"
)

// CartHandlers handles cart and checkout requests.
type CartHandlers struct {
	Registry *service.StoreRegistry
	Catalog  *service.CatalogService
	Loyalty  config.LoyaltyConfig
}

type cartResponse struct {
	Items           model.Cart `json:"items"`
	Units           int        `json:"units"`
	Subtotal        float64    `json:"subtotal"`
	Total           float64    `json:"total"`
	DiscountApplied bool       `json:"discountApplied"`
}

func (h *CartHandlers) store(r *http.Request) *service.SessionCartStore {
	return h.Registry.ForClient(r.Context(), ClientIDFromRequest(r))
}

func (h *CartHandlers) cartResponse(store *service.SessionCartStore) cartResponse {
	cart := store.Cart()
	subtotal, total := store.Totals()
	items := cart
	if items == nil {
		items = model.Cart{}
	}
	return cartResponse{
		Items:           items,
		Units:           cart.Units(),
		Subtotal:        subtotal,
		Total:           total,
		DiscountApplied: store.DiscountApplied(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandlers) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.cartResponse(h.store(r)))
}

type addItemRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// AddItem handles POST /api/cart/items. The payload either carries the full
// product shape or just a code, in which case the catalog is consulted.
func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product := model.Product{
		Code:  strings.TrimSpace(req.Code),
		Name:  req.Name,
		Price: req.Price,
		Image: req.Image,
	}
	if product.Name == "" && h.Catalog != nil {
		found, err := h.Catalog.GetByCode(r.Context(), product.Code)
		if err != nil {
			WriteAppError(w, err)
			return
		}
		product = *found
	}

	store := h.store(r)
	if err := store.AddToCart(r.Context(), product, req.Quantity); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.cartResponse(store))
}

// RemoveItem handles DELETE /api/cart/items/{code}. The quantity query
// parameter defaults to 1.
func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	qty := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			WriteAppError(w, apperrors.ValidationField("quantity", "quantity must be a positive integer"))
			return
		}
		qty = parsed
	}

	store := h.store(r)
	if err := store.RemoveFromCart(r.Context(), code, qty); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.cartResponse(store))
}

// Clear handles DELETE /api/cart.
func (h *CartHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	if err := store.ClearCart(r.Context()); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.cartResponse(store))
}

// Redeem handles POST /api/cart/redeem. The point cost comes from loyalty
// configuration, not the request.
func (h *CartHandlers) Redeem(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	if err := store.RedeemPoints(r.Context(), h.Loyalty.RedeemCost); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.cartResponse(store))
}

type checkoutResponse struct {
	Receipt *model.CheckoutReceipt `json:"receipt"`
	Cart    cartResponse           `json:"cart"`
	Session sessionResponse        `json:"session"`
}

// Checkout handles POST /api/cart/checkout. The charged total is computed
// server side from the cart and any applied discount.
func (h *CartHandlers) Checkout(w http.ResponseWriter, r *http.Request) {
	store := h.store(r)
	_, total := store.Totals()

	receipt, err := store.Checkout(r.Context(), total)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, checkoutResponse{
		Receipt: receipt,
		Cart:    h.cartResponse(store),
		Session: newSessionResponse(store.Session()),
	})
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, apperrors.Validation("must be greater than zero")
	}
	return n, nil
}
