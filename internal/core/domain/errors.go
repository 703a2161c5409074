package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedSource   = errors.New("malformed source")
	ErrRoomNotFound      = errors.New("room not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrConflict          = errors.New("conflicting edit")
	ErrIngestionNotFound = errors.New("ingestion not found")
	ErrStaleIngestion    = errors.New("stale ingestion")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
