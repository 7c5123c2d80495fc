package services

import (
	"errors"

	"growup/internal/errs"
)

const maxCreateAttempts = 3

// translateStoreError turns a repository error into a kinded error.
// Errors that already carry a kind, typically returned by a mutator, pass through.
func translateStoreError(err error, notFoundMsg, failMsg string) error {
	var kinded *errs.Error
	switch {
	case errors.As(err, &kinded):
		return err
	case errors.Is(err, errs.ErrNotFound):
		return errs.NotFound(notFoundMsg)
	case errors.Is(err, errs.ErrVersionConflict), errors.Is(err, errs.ErrAlreadyExists):
		return errs.Wrap(errs.KindConflict, "The document was modified concurrently, please retry", err)
	default:
		return errs.Internal(failMsg, err)
	}
}
