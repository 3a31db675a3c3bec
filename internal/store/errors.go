package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("conflict")
	// ErrReferenced is returned when a write violates a foreign key, either
	// by pointing at a missing row or by deleting a row still referenced.
	ErrReferenced = errors.New("foreign key violation")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps Postgres constraint violations onto store sentinels and
// passes every other error through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return errors.Join(ErrConflict, err)
		case pqForeignKeyViolation:
			return errors.Join(ErrReferenced, err)
		}
	}
	return err
}

func notFoundOr(err error, target error) error {
	if errors.Is(err, target) {
		return ErrNotFound
	}
	return translate(err)
}
