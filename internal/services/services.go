// Package services holds the membership domain operations. Services are
// thin structs over a *gorm.DB; every multi-row change runs in one
// transaction.
package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/apperr"
)

// Date truncates t to a civil date at UTC midnight, the form all coverage
// dates are stored and compared in.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// notFound turns gorm's record-not-found into a NOT_FOUND domain error.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	return err
}
