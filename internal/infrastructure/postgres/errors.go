package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapErr converts driver errors into the domain taxonomy so raw database
// messages never reach a response body.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound(what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.Conflict(conflictMessage(pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return apperror.NotFound(referenceName(pgErr.ConstraintName))
		case pgCheckViolation:
			return apperror.Validation("invalid "+what, nil)
		}
	}
	return err
}

func conflictMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email already registered"
	case strings.Contains(constraint, "username"):
		return "username already taken"
	}
	return "already exists"
}

func referenceName(constraint string) string {
	switch {
	case strings.Contains(constraint, "_author_id"):
		return "author"
	case strings.Contains(constraint, "_librarian_id"):
		return "librarian"
	case strings.Contains(constraint, "_library_id"):
		return "library"
	case strings.Contains(constraint, "_book_id"):
		return "book"
	}
	return "user"
}

// validID guards uuid columns against malformed path parameters.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
