package domain

import (
	"fmt"

	apperrors "github.com/allisson/phivault/internal/errors"
)

var (
	// ErrRecordNotFound is returned when no document exists for an entity
	// kind and id.
	ErrRecordNotFound = fmt.Errorf("record not found: %w", apperrors.ErrNotFound)

	// ErrUnknownEntityKind is returned when an entity kind has no declared
	// schema.
	ErrUnknownEntityKind = fmt.Errorf("unknown entity kind: %w", apperrors.ErrInvalidInput)

	// ErrSchemaDrift is returned when a composite field cannot be decoded
	// under any of the tolerated storage shapes. The codec recovers from it
	// per field; it never fails a whole read.
	ErrSchemaDrift = fmt.Errorf("schema drift: %w", apperrors.ErrInvalidInput)
)
