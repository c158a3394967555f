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

// UserRepo provides database operations for the local user directory.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const (
	userColumns = `email, nombre, apellidos, run, role, points, region, comuna`

	userGetByEmailQuery = `
		SELECT email, nombre, apellidos, run, role, points, region, comuna
		FROM users
		WHERE email = $1`

	userListQuery = `
		SELECT email, nombre, apellidos, run, role, points, region, comuna
		FROM users
		ORDER BY email ASC
		LIMIT $1 OFFSET $2`
)

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *model.UserRecord) (*model.UserRecord, error) {
	if u == nil {
		return nil, errors.New("user is required")
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var out model.UserRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (email, nombre, apellidos, run, role, points, region, comuna)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+userColumns,
			strings.ToLower(strings.TrimSpace(u.Email)),
			strings.TrimSpace(u.Nombre),
			u.Apellidos,
			u.Run,
			u.Role,
			u.Points,
			u.Region,
			u.Comuna,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserRecord])
		return err
	}); err != nil {
		return nil, mapRepoError(err,
			"user not found",
			fmt.Sprintf("user %s already exists", u.Email))
	}
	return &out, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	var out model.UserRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userGetByEmailQuery, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserRecord])
		return err
	})
	if err != nil {
		return nil, mapRepoError(err,
			fmt.Sprintf("user %s not found", email),
			"user already exists")
	}
	return &out, nil
}

// List retrieves users with pagination, ordered by email.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*model.UserRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []model.UserRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userListQuery, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.UserRecord])
		return err
	}); err != nil {
		return nil, mapRepoError(err, "users not found", "user already exists")
	}

	res := make([]*model.UserRecord, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a user by email.
func (r *UserRepo) Update(ctx context.Context, email string, req model.UpdateUserRequest) (*model.UserRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.UserRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := buildUserUpdateClause(req)
		query := userGetByEmailQuery
		if setClause != "" {
			args = append(args, strings.ToLower(strings.TrimSpace(email)))
			query = "UPDATE users SET " + setClause +
				" WHERE email = $" + strconv.Itoa(len(args)) +
				" RETURNING " + userColumns
		} else {
			args = []any{strings.ToLower(strings.TrimSpace(email))}
		}
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserRecord])
		return e
	})
	if err != nil {
		return nil, mapRepoError(err,
			fmt.Sprintf("user %s not found", email),
			"user already exists")
	}
	return &out, nil
}

// Delete deletes a user by email.
func (r *UserRepo) Delete(ctx context.Context, email string) (bool, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM users WHERE email = $1`,
			strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, mapRepoError(err, "user not found", "user already exists")
	}
	return affected > 0, nil
}

func buildUserUpdateClause(req model.UpdateUserRequest) (string, []any) {
	setParts := make([]string, 0, 7)
	args := make([]any, 0, 8)
	nextIdx := func() int { return len(args) + 1 }

	if req.Nombre != nil {
		setParts = append(setParts, fmt.Sprintf("nombre = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*req.Nombre))
	}
	if req.Apellidos != nil {
		setParts = append(setParts, fmt.Sprintf("apellidos = $%d", nextIdx()))
		args = append(args, *req.Apellidos)
	}
	if req.Run != nil {
		setParts = append(setParts, fmt.Sprintf("run = $%d", nextIdx()))
		args = append(args, *req.Run)
	}
	if req.Role != nil {
		setParts = append(setParts, fmt.Sprintf("role = $%d", nextIdx()))
		args = append(args, *req.Role)
	}
	if req.Points != nil {
		setParts = append(setParts, fmt.Sprintf("points = $%d", nextIdx()))
		args = append(args, *req.Points)
	}
	if req.Region != nil {
		setParts = append(setParts, fmt.Sprintf("region = $%d", nextIdx()))
		args = append(args, *req.Region)
	}
	if req.Comuna != nil {
		setParts = append(setParts, fmt.Sprintf("comuna = $%d", nextIdx()))
		args = append(args, *req.Comuna)
	}

	if len(setParts) == 0 {
		return "", nil
	}
	return strings.Join(setParts, ", "), args
}
