package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert hits a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")

	// ErrEmailTaken is returned when a user upsert collides with another row's email.
	ErrEmailTaken = errors.New("email belongs to another user")

	// ErrIdentityTaken is returned when a relink targets an identity id that
	// another row already carries.
	ErrIdentityTaken = errors.New("identity belongs to another user")
)

const (
	usersEmailConstraint   = "users_email_key"
	usersClerkIDConstraint = "users_clerk_id_key"
)

// uniqueViolation reports whether err is a unique-constraint violation and,
// if so, the name of the violated constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
