package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrStatusTaken   = errors.New("status value already exists")
	ErrColumnLimit   = errors.New("column limit reached")
	ErrNoColumns     = errors.New("no columns exist")
	ErrUnknownStatus = errors.New("status does not match any column")
)

// ColumnNotEmptyError is returned when a column still has live tasks.
type ColumnNotEmptyError struct {
	Tasks int64
}

func (e *ColumnNotEmptyError) Error() string {
	return fmt.Sprintf("column has %d tasks", e.Tasks)
}

const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint failure and
// returns a string naming the offending constraint or columns.
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		return pgErr.ConstraintName + " " + pgErr.Detail, true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return err.Error(), true
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return msg, true
	}
	return "", false
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
