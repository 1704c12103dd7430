// Package usecase implements the business logic for data key provisioning.
//
// The central operation is get-or-create by alternate name: callers ask for
// the key governing a purpose (e.g. "hipaa_encryption_key") and receive the
// same unwrapped key no matter how many goroutines or processes race on first
// use. Uniqueness is enforced by the repository's constraint on alt_name;
// in-process duplication is suppressed with singleflight and an in-memory
// chain of unwrapped keys.
package usecase

import (
	"context"

	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// DataKeyRepository defines the interface for data key persistence.
//
// Implementations must surface ErrDataKeyAlreadyExists on alt name collisions
// so that the use case can resolve create races by re-reading, and
// ErrDataKeyNotFound when no key exists for an alt name.
//
// Available implementations:
//   - PostgreSQLDataKeyRepository: native UUID and BYTEA types
//   - MySQLDataKeyRepository: BINARY(16) for UUIDs and BLOB for key material
type DataKeyRepository interface {
	// Create stores a new data key. The key must carry its wrapped material;
	// plaintext key material is never passed to the repository.
	Create(ctx context.Context, dataKey *keyvaultDomain.DataKey) error

	// GetByAltName retrieves a data key by its alternate name.
	GetByAltName(ctx context.Context, altName string) (*keyvaultDomain.DataKey, error)
}

// DataKeyUseCase defines the interface for data key lifecycle operations.
type DataKeyUseCase interface {
	// GetOrCreate returns the unwrapped data key for the alt name, creating
	// and persisting it on first use. Concurrent callers for the same alt
	// name always converge on a single key. The returned key has plaintext
	// material populated.
	GetOrCreate(ctx context.Context, altName string) (*keyvaultDomain.DataKey, error)

	// Get returns the unwrapped data key for the alt name, or
	// ErrDataKeyNotFound if it has never been created. Used on decrypt paths
	// where a missing key is a hard error, never a reason to mint one.
	Get(ctx context.Context, altName string) (*keyvaultDomain.DataKey, error)
}
