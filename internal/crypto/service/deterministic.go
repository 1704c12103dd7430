package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
)

// nonceDerivationLabel separates the nonce-derivation subkey from the
// encryption key itself. Changing this label invalidates every deterministic
// cipher value ever written; it is part of the storage format.
const nonceDerivationLabel = "phivault/deterministic-nonce/v1"

// DeterministicAESGCM implements the AEAD interface using AES-256-GCM with a
// synthetic nonce, making encryption a pure function of (plaintext, key).
//
// The nonce is the first 12 bytes of HMAC-SHA256 over the plaintext under a
// subkey derived from the encryption key, so the same plaintext under the
// same key always produces the same (nonce, ciphertext) pair. This is an
// SIV-style construction: nonce reuse across distinct plaintexts cannot
// occur because the nonce is a PRF of the plaintext.
//
// The equality of ciphertexts for equal plaintexts is the entire point, since
// it enables exact-match queries over encrypted fields. It is also the entire
// risk: frequency analysis over a column of deterministic ciphertexts reveals
// the distribution of plaintexts. Assign this cipher only through the field
// policy, never ad hoc.
type DeterministicAESGCM struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// NewDeterministicAESGCM creates a deterministic AES-256-GCM cipher instance.
// The key must be exactly 32 bytes (256 bits).
func NewDeterministicAESGCM(key []byte) (*DeterministicAESGCM, error) {
	if len(key) != 32 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Derive the nonce subkey: HMAC-SHA256(key, label).
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(nonceDerivationLabel))
	nonceKey := mac.Sum(nil)

	return &DeterministicAESGCM{aead: aead, nonceKey: nonceKey}, nil
}

// Encrypt encrypts plaintext with a nonce derived from the plaintext itself.
// Calling Encrypt twice with the same plaintext and AAD yields byte-identical
// ciphertext and nonce.
func (d *DeterministicAESGCM) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	mac := hmac.New(sha256.New, d.nonceKey)
	mac.Write(plaintext)
	nonce = mac.Sum(nil)[:d.aead.NonceSize()]

	ciphertext = d.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using the stored nonce. Decryption is identical
// to the randomized AES-GCM path; determinism only affects encryption.
func (d *DeterministicAESGCM) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	plaintext, err := d.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
