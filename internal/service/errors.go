// Package service implements the account, credential, catalog, booking and
// agency workflows on top of the repositories.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cleaning-booking/internal/repository"
)

// Error categories. The HTTP layer maps each one to a status code; every
// other error is internal.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrRevoked            = fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrInvalidCode        = fmt.Errorf("%w: invalid reset code", ErrValidation)
	ErrExpiredCode        = fmt.Errorf("%w: reset code expired", ErrValidation)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound turns repository.ErrNotFound into ErrNotFound with a subject,
// passing other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
