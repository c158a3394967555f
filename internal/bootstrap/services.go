package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/levelup/storefront/config"
	"github.com/levelup/storefront/internal/adapters/devauth"
	redisadapter "github.com/levelup/storefront/internal/adapters/redis"
	"github.com/levelup/storefront/internal/adapters/restauth"
	"github.com/levelup/storefront/internal/data"
	"github.com/levelup/storefront/internal/domain/model"
	httpx "github.com/levelup/storefront/internal/http"
	"github.com/levelup/storefront/internal/ports"
	"github.com/levelup/storefront/internal/service"
)

// ServiceDeps contains the dependencies needed to build the application services.
type ServiceDeps struct {
	Config      config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Services holds the constructed application services and the HTTP handler.
type Services struct {
	Registry *service.StoreRegistry
	Catalog  *service.CatalogService
	Users    *service.UserService
	Handler  http.Handler
}

// BuildServices wires the adapters and services together.
func BuildServices(deps ServiceDeps) (*Services, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auth, err := buildAuthProvider(deps.Config, logger)
	if err != nil {
		return nil, err
	}

	registry := service.NewStoreRegistry(service.RegistryOptions{
		KV: func(clientID string) ports.KVStore {
			return redisadapter.ForClient(deps.RedisClient, clientID)
		},
		Auth:    auth,
		Loyalty: deps.Config.Loyalty,
		Logger:  logger,
	})

	catalog := service.NewCatalogService(service.CatalogServiceOptions{
		Products: data.NewProductRepo(deps.DB),
	})
	users := service.NewUserService(service.UserServiceOptions{
		Users: data.NewUserRepo(deps.DB),
		Auth:  auth,
	})

	handler := httpx.NewRouter(httpx.RouterServices{
		Registry:     registry,
		Catalog:      catalog,
		Users:        users,
		Loyalty:      deps.Config.Loyalty,
		CookieDomain: deps.Config.HTTP.CookieDomain,
		SecureCookie: strings.HasPrefix(deps.Config.HTTP.BaseURL, "https://"),
		Logger:       logger,
	})

	return &Services{
		Registry: registry,
		Catalog:  catalog,
		Users:    users,
		Handler:  handler,
	}, nil
}

// buildAuthProvider selects the AuthAPI client, or the config-driven dev
// provider when dev mode is enabled.
//
//nolint:ireturn // both providers implement ports.AuthProvider.
func buildAuthProvider(cfg config.AppConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	if cfg.IsDev {
		role, ok := model.ParseRole(cfg.Auth.DevRole)
		if !ok {
			return nil, fmt.Errorf("invalid AUTH_DEV_ROLE %q", cfg.Auth.DevRole)
		}
		provider, err := devauth.NewProvider(devauth.Config{
			Email:  cfg.Auth.DevEmail,
			Nombre: cfg.Auth.DevNombre,
			Role:   role,
			Points: cfg.Auth.DevPoints,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev auth provider: %w", err)
		}
		logger.Warn("dev auth provider enabled", "email", cfg.Auth.DevEmail, "role", role)
		return provider, nil
	}

	client, err := restauth.NewClient(restauth.Options{
		BaseURL: cfg.Auth.BaseURL,
		Timeout: cfg.Auth.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth api client: %w", err)
	}
	return client, nil
}

// RunHTTPServer starts the HTTP server and blocks until ctx is canceled or
// the server fails. Shutdown drains in-flight requests up to the configured
// timeout.
func RunHTTPServer(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("http server shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
