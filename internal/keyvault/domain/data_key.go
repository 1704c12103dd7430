// Package domain defines the key vault domain models: the data key entity,
// the KMS keeper port used to wrap key material, and the in-memory key chain.
//
// Data keys are identified by a human-readable alternate name (e.g.
// "hipaa_encryption_key"). Exactly one data key may exist per alt name; the
// backing store enforces this with a uniqueness constraint. Keys are created
// lazily on first use and never deleted by this subsystem. Their lifetime is
// the lifetime of the PHI they protect.
package domain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DataKey is a per-purpose encryption key, itself wrapped by the master key
// held in an external KMS.
type DataKey struct {
	ID           uuid.UUID // Unique identifier (UUIDv7)
	AltName      string    // Human-readable alternate name, unique in the vault
	EncryptedKey []byte    // Key material wrapped by the KMS master key
	Key          []byte    // Plaintext key material (populated after unwrap, never persisted)
	CreatedAt    time.Time
}

// KMSKeeper wraps and unwraps data-key material under a master key held by an
// external KMS. Implemented by gocloud.dev/secrets keepers.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// DataKeyChain caches unwrapped data keys by alt name with thread-safe
// access. Lookups on the hot encrypt/decrypt path hit this cache; the
// backing store is consulted only on first use of an alt name.
type DataKeyChain struct {
	keys sync.Map // alt name -> *DataKey
}

// NewDataKeyChain creates an empty chain.
func NewDataKeyChain() *DataKeyChain {
	return &DataKeyChain{}
}

// Get retrieves a data key from the chain by its alt name.
func (c *DataKeyChain) Get(altName string) (*DataKey, bool) {
	if key, ok := c.keys.Load(altName); ok {
		return key.(*DataKey), true
	}
	return nil, false
}

// Put stores a data key in the chain.
func (c *DataKeyChain) Put(key *DataKey) {
	c.keys.Store(key.AltName, key)
}

// Close securely clears all plaintext key material from the chain.
func (c *DataKeyChain) Close() {
	c.keys.Range(func(name, value any) bool {
		if key, ok := value.(*DataKey); ok {
			Zero(key.Key)
		}
		return true
	})
	c.keys.Clear()
}
