package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelup/storefront/internal/domain/model"
)

type cartBody struct {
	Items []struct {
		Code     string  `json:"code"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
	} `json:"items"`
	Units           int     `json:"units"`
	Subtotal        float64 `json:"subtotal"`
	Total           float64 `json:"total"`
	DiscountApplied bool    `json:"discountApplied"`
}

func (e *testEnv) login(t *testing.T, points int) {
	t.Helper()
	e.Auth.DefaultUser.Points = points
	rec := e.do(http.MethodPost, "/api/session/login", map[string]string{
		"email": "gamer@levelup.cl", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRoutes_AddAndGet(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{
		"code": "JM001", "name": "Catan", "price": 29990, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := decodeBody[cartBody](rec)
	require.NoError(t, err)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
	assert.InDelta(t, 59980, body.Subtotal, 0.001)

	rec = env.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err = decodeBody[cartBody](rec)
	require.NoError(t, err)
	assert.Equal(t, 2, body.Units)
}

func TestCartRoutes_AddByCodeUsesCatalog(t *testing.T) {
	env := newTestEnv()
	_, err := env.Products.Create(context.Background(), &model.Product{
		Code: "JM001", Name: "Catan", Price: 29990,
	})
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{"code": "JM001"})
	require.Equal(t, http.StatusOK, rec.Code)

	body, decErr := decodeBody[cartBody](rec)
	require.NoError(t, decErr)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Catan", body.Items[0].Name)
	assert.InDelta(t, 29990, body.Items[0].Price, 0.001)
	assert.Equal(t, 1, body.Items[0].Quantity)
}

func TestCartRoutes_AddUnknownCodeIs404(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{"code": "ZZ999"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartRoutes_RemoveItem(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{
		"code": "JM001", "name": "Catan", "price": 29990, "quantity": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/cart/items/JM001?quantity=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := decodeBody[cartBody](rec)
	require.NoError(t, err)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 1, body.Items[0].Quantity)

	// Unknown codes are a silent success.
	rec = env.do(http.MethodDelete, "/api/cart/items/NOPE", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRoutes_Clear(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{
		"code": "JM001", "name": "Catan", "price": 29990,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := decodeBody[cartBody](rec)
	require.NoError(t, err)
	assert.Empty(t, body.Items)
	assert.Zero(t, body.Units)
}

func TestCartRoutes_RedeemFlow(t *testing.T) {
	env := newTestEnv()
	env.login(t, 500)

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{
		"code": "X", "name": "X", "price": 10000, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart/redeem", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := decodeBody[cartBody](rec)
	require.NoError(t, err)
	assert.True(t, body.DiscountApplied)
	assert.InDelta(t, 20000, body.Subtotal, 0.001)
	assert.InDelta(t, 18000, body.Total, 0.001)

	// A second redemption in the same cycle is rejected.
	rec = env.do(http.MethodPost, "/api/cart/redeem", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody, err := decodeBody[map[string]string](rec)
	require.NoError(t, err)
	assert.Equal(t, "discount_applied", errBody["error"])
}

func TestCartRoutes_RedeemRequiresSession(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cart/redeem", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartRoutes_RedeemInsufficientPoints(t *testing.T) {
	env := newTestEnv()
	env.login(t, 100)

	rec := env.do(http.MethodPost, "/api/cart/redeem", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body, err := decodeBody[map[string]string](rec)
	require.NoError(t, err)
	assert.Equal(t, "insufficient_points", body["error"])
}

func TestCartRoutes_Checkout(t *testing.T) {
	env := newTestEnv()
	env.login(t, 0)

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{
		"code": "X", "name": "X", "price": 10000, "quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)

	receipt, ok := body["receipt"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 10000, receipt["total_charged"], 0.001)
	assert.InDelta(t, 10, receipt["points_earned"], 0.001)
	assert.NotEmpty(t, receipt["id"])

	cart, ok := body["cart"].(map[string]any)
	require.True(t, ok)
	items, ok := cart["items"].([]any)
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestCartRoutes_CheckoutEmptyCart(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/cart/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body, err := decodeBody[map[string]string](rec)
	require.NoError(t, err)
	assert.Equal(t, "empty_cart", body["error"])
}

func TestCartRoutes_CheckoutChargesDiscountedTotal(t *testing.T) {
	env := newTestEnv()
	env.login(t, 500)

	rec := env.do(http.MethodPost, "/api/cart/items", map[string]any{
		"code": "X", "name": "X", "price": 10000, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart/redeem", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)

	receipt, ok := body["receipt"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 18000, receipt["total_charged"], 0.001)
	// 18 points earned at the 1000:1 conversion on the charged total.
	assert.InDelta(t, 18, receipt["points_earned"], 0.001)
}
