package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"

	"github.com/levelup/storefront/config"
	mocks "github.com/levelup/storefront/internal/mocks/storefront"
	"github.com/levelup/storefront/internal/ports"
	"github.com/levelup/storefront/internal/service"
)

// testEnv bundles a router with its backing doubles for handler tests.
type testEnv struct {
	Handler  http.Handler
	Auth     *mocks.MockAuthProvider
	Products *mocks.MemoryProductRepo
	Users    *mocks.MemoryUserRepo
	Registry *service.StoreRegistry

	// ClientID simulates one stable browser client across requests.
	ClientID string
}

func testLoyaltyConfig() config.LoyaltyConfig {
	return config.LoyaltyConfig{RedeemCost: 500, DiscountPercent: 0.10, PointsConversionRate: 1000}
}

func newTestEnv() *testEnv {
	auth := mocks.NewMockAuthProvider()
	products := mocks.NewMemoryProductRepo()
	users := mocks.NewMemoryUserRepo()

	kvs := make(map[string]*mocks.MemoryKV)
	registry := service.NewStoreRegistry(service.RegistryOptions{
		KV: func(clientID string) ports.KVStore {
			if kv, ok := kvs[clientID]; ok {
				return kv
			}
			kv := mocks.NewMemoryKV()
			kvs[clientID] = kv
			return kv
		},
		Auth:    auth,
		Loyalty: testLoyaltyConfig(),
	})

	handler := NewRouter(RouterServices{
		Registry: registry,
		Catalog:  service.NewCatalogService(service.CatalogServiceOptions{Products: products}),
		Users:    service.NewUserService(service.UserServiceOptions{Users: users, Auth: auth}),
		Loyalty:  testLoyaltyConfig(),
	})

	return &testEnv{
		Handler:  handler,
		Auth:     auth,
		Products: products,
		Users:    users,
		Registry: registry,
		ClientID: uuid.NewString(),
	}
}

// do performs a request as the env's browser client and returns the recorder.
func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: e.ClientID})
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](rec *httptest.ResponseRecorder) (T, error) {
	var out T
	err := json.Unmarshal(rec.Body.Bytes(), &out)
	return out, err
}
