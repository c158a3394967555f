// Package devseed populates the catalog and user directory with demo data
// for local development. Seeding is idempotent: rows that already exist are
// left untouched.
package devseed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/levelup/storefront/internal/domain/model"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Catalog *service.CatalogService
	Users   *service.UserService
}

// Run executes the full development seeding workflow.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	failures += seedProducts(ctx, svcs.Catalog, logger)
	failures += seedUsers(ctx, svcs.Users, logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedProducts(ctx context.Context, svc *service.CatalogService, logger *slog.Logger) int {
	failures := 0
	for _, p := range defaultProducts() {
		created, err := createProduct(ctx, svc, p)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed product", "code", p.Code, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			msg := "product already exists"
			if created {
				msg = "created product"
			}
			logger.InfoContext(ctx, msg, "code", p.Code)
		}
	}
	return failures
}

func createProduct(ctx context.Context, svc *service.CatalogService, p *model.Product) (bool, error) {
	if _, err := svc.Create(ctx, p); err != nil {
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func defaultProducts() []*model.Product {
	return []*model.Product{
		{
			Code: "JM001", Name: "Catan", Price: 29990, Category: "Juegos de Mesa",
			Description: "Un clasico juego de estrategia donde los jugadores colonizan la isla de Catan.",
		},
		{
			Code: "JM002", Name: "Carcassonne", Price: 24990, Category: "Juegos de Mesa",
			Description: "Juego de colocacion de losetas donde se construye el paisaje medieval frances.",
		},
		{
			Code: "AC001", Name: "Controlador Inalambrico Xbox Series X", Price: 59990, Category: "Accesorios",
			Description: "Controlador ergonomico con botones mapeables y respuesta tactil mejorada.",
		},
		{
			Code: "AC002", Name: "Auriculares Gamer HyperX Cloud II", Price: 79990, Category: "Accesorios",
			Description: "Sonido envolvente 7.1 con microfono desmontable y almohadillas de espuma viscoelastica.",
		},
		{
			Code: "CO001", Name: "PlayStation 5", Price: 549990, Category: "Consolas",
			Description: "Consola de ultima generacion con SSD ultrarrapido y graficos en 4K.",
		},
		{
			Code: "CG001", Name: "PC Gamer ASUS ROG Strix", Price: 1299990, Category: "Computadores Gamers",
			Description: "Equipo de alto rendimiento para gaming competitivo y streaming.",
		},
		{
			Code: "SG001", Name: "Silla Gamer Secretlab Titan", Price: 349990, Category: "Sillas Gamers",
			Description: "Silla ergonomica ajustable con soporte lumbar para sesiones largas.",
		},
		{
			Code: "MS001", Name: "Mouse Gamer Logitech G502 HERO", Price: 49990, Category: "Mouse",
			Description: "Sensor HERO 25K con pesas ajustables y 11 botones programables.",
		},
		{
			Code: "MP001", Name: "Mousepad Razer Goliathus Extended Chroma", Price: 29990, Category: "Mousepad",
			Description: "Superficie amplia con iluminacion RGB personalizable.",
		},
		{
			Code: "PP001", Name: "Polera Gamer Personalizada Level-Up", Price: 14990, Category: "Poleras Personalizadas",
			Description: "Polera de algodon con estampado gamer personalizable.",
		},
	}
}

func seedUsers(ctx context.Context, svc *service.UserService, logger *slog.Logger) int {
	failures := 0
	users := []*model.UserRecord{
		{Email: "admin@levelup.cl", Nombre: "Admin", Role: model.RoleAdmin, Points: 0},
		{Email: "gamer@levelup.cl", Nombre: "Gamer", Apellidos: "Demo", Role: model.RoleUser, Points: 750},
	}

	for _, u := range users {
		created, err := createUser(ctx, svc, u)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed user", "email", u.Email, "error", err)
			}
			failures++
			continue
		}
		// Registration zeroes points, so demo balances are set afterwards.
		if created && u.Points > 0 {
			points := u.Points
			if _, err := svc.Update(ctx, u.Email, model.UpdateUserRequest{Points: &points}); err != nil {
				if logger != nil {
					logger.ErrorContext(ctx, "failed to set seed points", "email", u.Email, "error", err)
				}
				failures++
				continue
			}
		}
		if logger != nil {
			msg := "user already exists"
			if created {
				msg = "created user"
			}
			logger.InfoContext(ctx, msg, "email", u.Email)
		}
	}
	return failures
}

func createUser(ctx context.Context, svc *service.UserService, u *model.UserRecord) (bool, error) {
	if _, err := svc.Create(ctx, u); err != nil {
		if apperrors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
