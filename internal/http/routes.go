package httpx

import (
	"log/slog"
	"net/http"

	"github.com/levelup/storefront/config"
	"github.com/levelup/storefront/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Registry *service.StoreRegistry
	Catalog  *service.CatalogService
	Users    *service.UserService
	Loyalty  config.LoyaltyConfig

	CookieDomain string
	SecureCookie bool
	Logger       *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	sessionHandlers := &SessionHandlers{Registry: services.Registry}
	cartHandlers := &CartHandlers{
		Registry: services.Registry,
		Catalog:  services.Catalog,
		Loyalty:  services.Loyalty,
	}

	registerSessionRoutes(mux, sessionHandlers)
	registerCartRoutes(mux, cartHandlers)
	if services.Catalog != nil {
		registerProductRoutes(mux, &ProductHandlers{Svc: services.Catalog}, services.Registry)
	}
	if services.Users != nil {
		registerUserRoutes(mux, &UserHandlers{Svc: services.Users}, services.Registry)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	clientID := ClientID(ClientIDConfig{
		CookieDomain: services.CookieDomain,
		Secure:       services.SecureCookie,
	})

	var handler http.Handler = mux
	handler = clientID(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerSessionRoutes(mux *http.ServeMux, h *SessionHandlers) {
	mux.HandleFunc("GET /api/session", h.Get)
	mux.HandleFunc("POST /api/session/login", h.Login)
	mux.HandleFunc("POST /api/session/logout", h.Logout)
}

func registerCartRoutes(mux *http.ServeMux, h *CartHandlers) {
	mux.HandleFunc("GET /api/cart", h.Get)
	mux.HandleFunc("POST /api/cart/items", h.AddItem)
	mux.HandleFunc("DELETE /api/cart/items/{code}", h.RemoveItem)
	mux.HandleFunc("DELETE /api/cart", h.Clear)
	mux.HandleFunc("POST /api/cart/redeem", h.Redeem)
	mux.HandleFunc("POST /api/cart/checkout", h.Checkout)
}

func registerProductRoutes(mux *http.ServeMux, h *ProductHandlers, registry *service.StoreRegistry) {
	admin := RequireAdmin(registry)

	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("GET /api/products/{code}", h.Get)
	mux.Handle("POST /api/products", admin(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/products/{code}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/products/{code}", admin(http.HandlerFunc(h.Delete)))
}

func registerUserRoutes(mux *http.ServeMux, h *UserHandlers, registry *service.StoreRegistry) {
	admin := RequireAdmin(registry)

	mux.Handle("GET /api/users", admin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/users/{email}", admin(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/users", admin(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/users/{email}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/users/{email}", admin(http.HandlerFunc(h.Delete)))
}
