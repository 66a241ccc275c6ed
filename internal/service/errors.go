package service

import (
	"errors"
	"fmt"

	"github.com/Dan9191/payments-tracker/internal/repository"
)

var (
	// ErrNotFound is returned for an unknown payment or evidence reference
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedMedia is returned for evidence outside the allowed content types
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrBadInput is returned for uploads that are not in an accepted format
	ErrBadInput = errors.New("bad input")
)

// ValidationError names the field that broke a format or business rule.
// Row locates the record in a bulk import (see ingest.Row.Line), 0 otherwise.
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// StoreError wraps a failure of the storage collaborator
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("failed to %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// storeErr translates repository errors; a missing document becomes ErrNotFound
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return &StoreError{Op: op, Err: err}
}
