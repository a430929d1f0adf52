// Package store holds the sqlx-backed persistence for users, the catalog,
// loans, and notifications.
package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrCodeTaken is returned when a catalog code is already in use.
	ErrCodeTaken = errors.New("catalog code is already in use")

	// ErrOutOfStock is returned when no copy of an item is available.
	ErrOutOfStock = errors.New("item is out of stock")

	// ErrLoanExists is returned when the user already has an open loan for the item.
	ErrLoanExists = errors.New("an open loan for this item already exists")

	// ErrInvalidTransition is returned when a loan cannot move to the requested status.
	ErrInvalidTransition = errors.New("invalid loan status transition")
)

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
