package service

import (
	"context"
	"strings"

	"github.com/levelup/storefront/internal/domain/model"
	apperrors "github.com/levelup/storefront/internal/errors"
	"github.com/levelup/storefront/internal/ports"
)

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	Products ports.ProductRepository
}

// CatalogService orchestrates product CRUD for the storefront and admin panel.
type CatalogService struct {
	products ports.ProductRepository
}

// NewCatalogService constructs a new CatalogService.
func NewCatalogService(opts CatalogServiceOptions) *CatalogService {
	return &CatalogService{products: opts.Products}
}

// Create validates and stores a new product.
func (s *CatalogService) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	if p == nil {
		return nil, apperrors.Validation("product is required")
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid product")
	}
	p.Code = strings.TrimSpace(p.Code)
	return s.products.Create(ctx, p)
}

// GetByCode retrieves a product by code.
func (s *CatalogService) GetByCode(ctx context.Context, code string) (*model.Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.ValidationField("code", "code is required")
	}
	return s.products.GetByCode(ctx, code)
}

// List returns a page of products.
func (s *CatalogService) List(ctx context.Context, opts model.ProductsListOptions) ([]*model.Product, error) {
	return s.products.List(ctx, normalizeProductListOptions(opts))
}

// Update applies partial updates to a product.
func (s *CatalogService) Update(ctx context.Context, code string, req model.UpdateProductRequest) (*model.Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.ValidationField("code", "code is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid update")
	}
	return s.products.Update(ctx, code, req)
}

// Delete removes a product by code. Returns false when no product matched.
func (s *CatalogService) Delete(ctx context.Context, code string) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return false, apperrors.ValidationField("code", "code is required")
	}
	return s.products.Delete(ctx, code)
}

func normalizeProductListOptions(opts model.ProductsListOptions) model.ProductsListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
