package service

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
)

func newTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestNewDeterministicAESGCM(t *testing.T) {
	t.Run("Valid key", func(t *testing.T) {
		cipher, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("Invalid key size", func(t *testing.T) {
		_, err := NewDeterministicAESGCM([]byte("short"))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})
}

func TestDeterministicAESGCM_Encrypt(t *testing.T) {
	t.Run("Same plaintext and key yield identical ciphertext", func(t *testing.T) {
		key := newTestKey(t)
		cipher, err := NewDeterministicAESGCM(key)
		require.NoError(t, err)

		plaintext := []byte("123-45-6789")

		ct1, nonce1, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)
		ct2, nonce2, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)

		assert.Equal(t, ct1, ct2)
		assert.Equal(t, nonce1, nonce2)
	})

	t.Run("Different plaintexts yield different nonces", func(t *testing.T) {
		cipher, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)

		_, nonce1, err := cipher.Encrypt([]byte("123-45-6789"), nil)
		require.NoError(t, err)
		_, nonce2, err := cipher.Encrypt([]byte("987-65-4321"), nil)
		require.NoError(t, err)

		assert.False(t, bytes.Equal(nonce1, nonce2))
	})

	t.Run("Different keys yield different ciphertext", func(t *testing.T) {
		plaintext := []byte("123-45-6789")

		cipher1, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)
		cipher2, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)

		ct1, _, err := cipher1.Encrypt(plaintext, nil)
		require.NoError(t, err)
		ct2, _, err := cipher2.Encrypt(plaintext, nil)
		require.NoError(t, err)

		assert.False(t, bytes.Equal(ct1, ct2))
	})
}

func TestDeterministicAESGCM_Decrypt(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		cipher, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)

		plaintext := []byte(`{"city":"Springfield","zip":"62704"}`)
		ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("Tampered ciphertext fails authentication", func(t *testing.T) {
		cipher, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)

		ciphertext, nonce, err := cipher.Encrypt([]byte("plaintext"), nil)
		require.NoError(t, err)

		ciphertext[0] ^= 0xff
		_, err = cipher.Decrypt(ciphertext, nonce, nil)
		assert.Error(t, err)
	})

	t.Run("Wrong key fails authentication", func(t *testing.T) {
		cipher1, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)
		cipher2, err := NewDeterministicAESGCM(newTestKey(t))
		require.NoError(t, err)

		ciphertext, nonce, err := cipher1.Encrypt([]byte("plaintext"), nil)
		require.NoError(t, err)

		_, err = cipher2.Decrypt(ciphertext, nonce, nil)
		assert.Error(t, err)
	})
}

func TestAESGCM_RandomizedEncryption(t *testing.T) {
	cipher, err := NewAESGCM(newTestKey(t))
	require.NoError(t, err)

	plaintext := []byte("clinical notes")

	ct1, nonce1, err := cipher.Encrypt(plaintext, nil)
	require.NoError(t, err)
	ct2, nonce2, err := cipher.Encrypt(plaintext, nil)
	require.NoError(t, err)

	// Random nonces make repeated encryptions differ.
	assert.False(t, bytes.Equal(nonce1, nonce2))
	assert.False(t, bytes.Equal(ct1, ct2))

	decrypted, err := cipher.Decrypt(ct1, nonce1, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestChaCha20Poly1305_RoundTrip(t *testing.T) {
	cipher, err := NewChaCha20Poly1305(newTestKey(t))
	require.NoError(t, err)

	plaintext := []byte("clinical notes")
	ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
	require.NoError(t, err)

	decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAEADManager_CreateCipher(t *testing.T) {
	manager := NewAEADManager()
	key := newTestKey(t)

	t.Run("Supported algorithms", func(t *testing.T) {
		for _, alg := range []cryptoDomain.Algorithm{
			cryptoDomain.AESGCM,
			cryptoDomain.ChaCha20,
			cryptoDomain.AESGCMDeterministic,
		} {
			cipher, err := manager.CreateCipher(key, alg)
			require.NoError(t, err, "algorithm %s", alg)
			assert.NotNil(t, cipher)
		}
	})

	t.Run("Unsupported algorithm", func(t *testing.T) {
		_, err := manager.CreateCipher(key, cryptoDomain.Algorithm("rot13"))
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})

	t.Run("Invalid key size", func(t *testing.T) {
		_, err := manager.CreateCipher([]byte("short"), cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})
}
