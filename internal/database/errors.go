package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/thereayou/flux/internal/apperr"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation распознаёт нарушение уникального индекса в Postgres и SQLite
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translate приводит ошибку gorm к виду приложения.
// what подставляется в сообщения "not found" и "already exists".
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(what)
	case IsUniqueViolation(err):
		return apperr.Conflict(what+" already exists").Wrap(err)
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperr.Backend(err)
	}
}

func notFound(what string) error {
	return apperr.NotFound(what + " not found")
}
