// Package domain defines the cryptographic domain models for PHI field
// encryption: the cipher algorithms, the self-describing cipher value format
// and the cryptographic error taxonomy.
package domain

// Algorithm represents the AEAD construction used to encrypt a field value.
//
// All supported algorithms provide Authenticated Encryption with Associated
// Data, ensuring both confidentiality and authenticity of encrypted fields.
type Algorithm string

const (
	// AESGCM is AES-256-GCM with a random 12-byte nonce per call. Two
	// encryptions of the same plaintext never produce the same ciphertext.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305 with a random 12-byte nonce per call.
	// Preferred on platforms without AES hardware acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"

	// AESGCMDeterministic is AES-256-GCM with a synthetic nonce derived from
	// the plaintext via HMAC-SHA256 under a key-separated subkey. The whole
	// construction is a pure function of (plaintext, key): identical inputs
	// produce byte-identical cipher values, which is what makes exact-match
	// search over encrypted fields possible. Equal plaintexts are observable
	// as equal ciphertexts; assign it only to fields where that leak is an
	// accepted tradeoff.
	AESGCMDeterministic Algorithm = "aes-gcm-deterministic"
)

// Randomized reports whether the algorithm produces fresh ciphertext on
// every call.
func (a Algorithm) Randomized() bool {
	return a == AESGCM || a == ChaCha20
}
