package data

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/levelup/storefront/internal/errors"
)

// mapRepoError translates driver errors into application errors shared by all
// repositories: pgx.ErrNoRows becomes a not-found, a unique violation becomes
// a conflict, anything else is wrapped as internal.
func mapRepoError(err error, notFoundMsg, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound(notFoundMsg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperrors.Conflict(conflictMsg)
	}
	return apperrors.Wrap(err, apperrors.ErrCodeInternal, "database error")
}
