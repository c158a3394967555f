package ports

import (
	"context"

	"github.com/levelup/storefront/internal/domain/model"
)

// ProductRepository provides catalog persistence for admin CRUD.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	GetByCode(ctx context.Context, code string) (*model.Product, error)
	List(ctx context.Context, opts model.ProductsListOptions) ([]*model.Product, error)
	Update(ctx context.Context, code string, req model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, code string) (bool, error)
}

// UserRepository provides user persistence for admin CRUD.
type UserRepository interface {
	Create(ctx context.Context, u *model.UserRecord) (*model.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*model.UserRecord, error)
	List(ctx context.Context, limit, offset int) ([]*model.UserRecord, error)
	Update(ctx context.Context, email string, req model.UpdateUserRequest) (*model.UserRecord, error)
	Delete(ctx context.Context, email string) (bool, error)
}
