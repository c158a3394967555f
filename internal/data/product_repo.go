package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/levelup/storefront/internal/data/pgxutil"
	"github.com/levelup/storefront/internal/domain/model"
)

// ProductRepo provides database operations for catalog products.
type ProductRepo struct {
	DB *sql.DB
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db}
}

const (
	productColumns = `code, name, price, image, description, category, rating, reviews`

	productGetByCodeQuery = `
		SELECT code, name, price, image, description, category, rating, reviews
		FROM products
		WHERE code = $1`
)

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	if p == nil {
		return nil, errors.New("product is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var out model.Product
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO products (code, name, price, image, description, category, rating, reviews)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+productColumns,
			strings.TrimSpace(p.Code),
			strings.TrimSpace(p.Name),
			p.Price,
			p.Image,
			p.Description,
			p.Category,
			p.Rating,
			p.Reviews,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Product])
		return err
	}); err != nil {
		return nil, mapRepoError(err,
			"product not found",
			fmt.Sprintf("product %s already exists", p.Code))
	}
	return &out, nil
}

// GetByCode retrieves a product by code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*model.Product, error) {
	var out model.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, productGetByCodeQuery, code)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Product])
		return err
	})
	if err != nil {
		return nil, mapRepoError(err,
			fmt.Sprintf("product %s not found", code),
			"product already exists")
	}
	return &out, nil
}

// List retrieves products with optional filters and pagination. Q matches the
// name via ILIKE substring; Category matches exactly.
func (r *ProductRepo) List(ctx context.Context, opts model.ProductsListOptions) ([]*model.Product, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query, args := buildProductListQuery(opts, limit, offset)

	var rowsOut []model.Product
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
		return err
	}); err != nil {
		return nil, mapRepoError(err, "products not found", "product already exists")
	}

	res := make([]*model.Product, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a product by code.
func (r *ProductRepo) Update(ctx context.Context, code string, req model.UpdateProductRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := buildProductUpdateClause(req)
		query := productGetByCodeQuery
		if setClause != "" {
			args = append(args, code)
			query = "UPDATE products SET " + setClause +
				" WHERE code = $" + strconv.Itoa(len(args)) +
				" RETURNING " + productColumns
		} else {
			args = []any{code}
		}
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Product])
		return e
	})
	if err != nil {
		return nil, mapRepoError(err,
			fmt.Sprintf("product %s not found", code),
			"product already exists")
	}
	return &out, nil
}

// Delete deletes a product by code.
func (r *ProductRepo) Delete(ctx context.Context, code string) (bool, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM products WHERE code = $1`, code)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, mapRepoError(err, "product not found", "product already exists")
	}
	return affected > 0, nil
}

func buildProductListQuery(opts model.ProductsListOptions, limit, offset int) (string, []any) {
	var where []string
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", nextIdx()))
		args = append(args, "%"+strings.TrimSpace(*opts.Q)+"%")
	}
	if opts.Category != nil && strings.TrimSpace(*opts.Category) != "" {
		where = append(where, fmt.Sprintf("category = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*opts.Category))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY code ASC LIMIT $%d OFFSET $%d", nextIdx(), nextIdx()+1)
	args = append(args, limit, offset)
	return query, args
}

func buildProductUpdateClause(req model.UpdateProductRequest) (string, []any) {
	setParts := make([]string, 0, 7)
	args := make([]any, 0, 8)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Price != nil {
		setParts = append(setParts, fmt.Sprintf("price = $%d", nextIdx()))
		args = append(args, *req.Price)
	}
	if req.Image != nil {
		setParts = append(setParts, fmt.Sprintf("image = $%d", nextIdx()))
		args = append(args, *req.Image)
	}
	if req.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", nextIdx()))
		args = append(args, *req.Description)
	}
	if req.Category != nil {
		setParts = append(setParts, fmt.Sprintf("category = $%d", nextIdx()))
		args = append(args, *req.Category)
	}
	if req.Rating != nil {
		setParts = append(setParts, fmt.Sprintf("rating = $%d", nextIdx()))
		args = append(args, *req.Rating)
	}
	if req.Reviews != nil {
		setParts = append(setParts, fmt.Sprintf("reviews = $%d", nextIdx()))
		args = append(args, *req.Reviews)
	}

	if len(setParts) == 0 {
		return "", nil
	}
	return strings.Join(setParts, ", "), args
}
