package services

import (
	"errors"

	"github.com/schoolhub/apiserver/internal/apperr"
	"github.com/schoolhub/apiserver/internal/store"
)

// lookupError maps a repository read failure to NotFound or Persistence.
func lookupError(err error, resource string, id any, operation string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(resource, id)
	}
	return apperr.Persistence(operation, err)
}

func validateID(id int, field, label string) error {
	if id <= 0 {
		return apperr.Validation(label+" ID must be a positive integer", field)
	}
	return nil
}
