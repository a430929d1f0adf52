package store

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	// ErrCodeInvalid is returned when a catalog code does not match the required pattern.
	ErrCodeInvalid = errors.New("catalog code must match [a-z0-9][a-z0-9-]*[a-z0-9]")

	// ErrEmailInvalid is returned for a malformed email address.
	ErrEmailInvalid = errors.New("email address is not valid")

	// ErrPasswordTooShort is returned for passwords under MinPasswordLength runes.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

	// ErrDisplayNameRequired is returned when the display name is blank.
	ErrDisplayNameRequired = errors.New("display name is required")

	codeRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]*[a-z0-9])?$`)
)

// ValidateItemCode checks that code is lowercase alphanumerics and hyphens,
// not starting or ending with a hyphen.
func ValidateItemCode(code string) error {
	if !codeRe.MatchString(code) {
		return ErrCodeInvalid
	}
	return nil
}

// ValidateRegistration checks the fields of the registration form. It does
// not check email uniqueness; the unique index on users.email does.
func ValidateRegistration(displayName, email, password string) error {
	if strings.TrimSpace(displayName) == "" {
		return ErrDisplayNameRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
