package domain

import (
	"github.com/allisson/phivault/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors to
// provide context for cryptographic failures.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is
	// not supported. Supported algorithms: AESGCM, ChaCha20, AESGCMDeterministic.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	// All data keys must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrEncryptionFailed indicates an encryption operation failed despite a
	// resolved key. A write must never fall back to storing the plaintext;
	// callers abort the enclosing write when they see this error.
	ErrEncryptionFailed = errors.Wrap(errors.ErrInvalidInput, "encryption failed")

	// ErrDecryptionFailed indicates a decryption operation failed: wrong key,
	// tampered ciphertext, or corrupted data. For security reasons the
	// specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrMalformedCipherValue indicates a value claimed the cipher value
	// format but could not be parsed.
	ErrMalformedCipherValue = errors.Wrap(errors.ErrInvalidInput, "malformed cipher value")
)
