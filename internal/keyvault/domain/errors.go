package domain

import (
	"github.com/allisson/phivault/internal/errors"
)

// Key vault error definitions.
var (
	// ErrDataKeyNotFound indicates no data key exists for the requested alt name.
	ErrDataKeyNotFound = errors.Wrap(errors.ErrNotFound, "data key not found")

	// ErrDataKeyAlreadyExists indicates a data key with the same alt name was
	// inserted concurrently. Callers retry the lookup instead of failing.
	ErrDataKeyAlreadyExists = errors.Wrap(errors.ErrConflict, "data key already exists")

	// ErrKeyUnavailable indicates the key vault could not produce a usable
	// key: the backing store is unreachable or the KMS master key cannot be
	// used. The vault fails closed; writes that need a key are aborted.
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "data key unavailable")
)
