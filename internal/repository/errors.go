// Package repository wraps gorm access to each table. Repositories return the
// sentinel errors below so higher layers never inspect driver errors.
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/database"
)

// ErrNotFound is returned when no row matches, including rows that exist but
// are not visible to the caller (another user's booking).
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique index.
var ErrDuplicate = errors.New("duplicate")

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case database.IsDuplicateKey(err):
		return ErrDuplicate
	}
	return err
}
