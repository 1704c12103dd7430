// Package service provides the cryptographic services for PHI field
// encryption: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305, deterministic
// AES-GCM) and the field encryption engine that applies the field policy.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// DataKeyProvider resolves data keys from the key vault. Implemented by the
// key vault use case; declared here so the engine depends on an abstraction.
type DataKeyProvider interface {
	// GetOrCreate returns the data key with the given alt name, creating it
	// on first use. Safe under concurrent callers racing on the same name.
	GetOrCreate(ctx context.Context, altName string) (*keyvaultDomain.DataKey, error)

	// Get returns an existing data key, or ErrDataKeyNotFound.
	Get(ctx context.Context, altName string) (*keyvaultDomain.DataKey, error)
}
