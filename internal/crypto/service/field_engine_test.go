package service_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
	"github.com/allisson/phivault/internal/crypto/service"
	"github.com/allisson/phivault/internal/crypto/service/mocks"
	"github.com/allisson/phivault/internal/fieldval"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
	"github.com/allisson/phivault/internal/policy"
)

func newEngine(t *testing.T, disabled bool) (*service.FieldEngine, *mocks.MockDataKeyProvider) {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	dataKey := &keyvaultDomain.DataKey{
		ID:      uuid.Must(uuid.NewV7()),
		AltName: "hipaa_encryption_key",
		Key:     key,
	}

	keys := &mocks.MockDataKeyProvider{}
	keys.On("GetOrCreate", mock.Anything, "hipaa_encryption_key").Return(dataKey, nil).Maybe()
	keys.On("Get", mock.Anything, "hipaa_encryption_key").Return(dataKey, nil).Maybe()

	engine := service.NewFieldEngine(
		service.FieldEngineConfig{
			KeyAltName:      "hipaa_encryption_key",
			RandomAlgorithm: cryptoDomain.AESGCM,
			Disabled:        disabled,
		},
		policy.Default(),
		keys,
		service.NewAEADManager(),
		nil,
	)
	return engine, keys
}

func TestFieldEngine_Encrypt(t *testing.T) {
	ctx := context.Background()

	t.Run("Null passes through as nil", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		out, err := engine.Encrypt(ctx, "patient", "ssn", fieldval.Null())

		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("Ungoverned field passes through", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		out, err := engine.Encrypt(ctx, "patient", "id", fieldval.ID("patient-1"))

		require.NoError(t, err)
		assert.Equal(t, "patient-1", out)
	})

	t.Run("Deterministic field is stable across calls", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		first, err := engine.Encrypt(ctx, "patient", "ssn", fieldval.String("123-45-6789"))
		require.NoError(t, err)
		second, err := engine.Encrypt(ctx, "patient", "ssn", fieldval.String("123-45-6789"))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.True(t, cryptoDomain.IsCipherValue(first.(string)))

		cv, err := cryptoDomain.ParseCipherValue(first.(string))
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.AESGCMDeterministic, cv.Algorithm)
		assert.Equal(t, "hipaa_encryption_key", cv.KeyAltName)
	})

	t.Run("Random field differs across calls", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		first, err := engine.Encrypt(ctx, "patient", "diagnosis", fieldval.String("hypertension"))
		require.NoError(t, err)
		second, err := engine.Encrypt(ctx, "patient", "diagnosis", fieldval.String("hypertension"))
		require.NoError(t, err)

		assert.NotEqual(t, first, second)

		cv, err := cryptoDomain.ParseCipherValue(first.(string))
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.AESGCM, cv.Algorithm)
	})

	t.Run("Composite is canonicalized before encryption", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		a := fieldval.Map(map[string]fieldval.Value{
			"city": fieldval.String("Springfield"),
			"zip":  fieldval.String("62704"),
		})
		b := fieldval.Map(map[string]fieldval.Value{
			"zip":  fieldval.String("62704"),
			"city": fieldval.String("Springfield"),
		})

		// medications is random, so use a deterministic composite comparison
		// through decrypt instead: encrypt both and verify round trip equality.
		ea, err := engine.Encrypt(ctx, "patient", "medications", a)
		require.NoError(t, err)
		eb, err := engine.Encrypt(ctx, "patient", "medications", b)
		require.NoError(t, err)

		da, err := engine.Decrypt(ctx, ea)
		require.NoError(t, err)
		db, err := engine.Decrypt(ctx, eb)
		require.NoError(t, err)
		assert.Equal(t, da, db)
	})

	t.Run("Disabled engine stores native values", func(t *testing.T) {
		engine, _ := newEngine(t, true)

		out, err := engine.Encrypt(ctx, "patient", "ssn", fieldval.String("123-45-6789"))

		require.NoError(t, err)
		assert.Equal(t, "123-45-6789", out)
	})

	t.Run("Key vault failure aborts the write", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		keys := &mocks.MockDataKeyProvider{}
		keys.On("GetOrCreate", mock.Anything, "hipaa_encryption_key").
			Return(nil, keyvaultDomain.ErrKeyUnavailable)

		engine := service.NewFieldEngine(
			service.FieldEngineConfig{
				KeyAltName:      "hipaa_encryption_key",
				RandomAlgorithm: cryptoDomain.AESGCM,
			},
			policy.Default(),
			keys,
			service.NewAEADManager(),
			nil,
		)

		out, err := engine.Encrypt(ctx, "patient", "ssn", fieldval.String("123-45-6789"))

		assert.Nil(t, out)
		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyUnavailable)
	})
}

func TestFieldEngine_Decrypt(t *testing.T) {
	ctx := context.Background()

	t.Run("Round trips a governed scalar", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		encrypted, err := engine.Encrypt(ctx, "patient", "email", fieldval.String("john@example.com"))
		require.NoError(t, err)

		decrypted, err := engine.Decrypt(ctx, encrypted)
		require.NoError(t, err)
		assert.Equal(t, "john@example.com", decrypted)
	})

	t.Run("Legacy plaintext passes through", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		out, err := engine.Decrypt(ctx, "john@example.com")

		require.NoError(t, err)
		assert.Equal(t, "john@example.com", out)
	})

	t.Run("Non-string values pass through", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		out, err := engine.Decrypt(ctx, int64(42))

		require.NoError(t, err)
		assert.Equal(t, int64(42), out)
	})

	t.Run("Malformed cipher value fails", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		_, err := engine.Decrypt(ctx, "pv1:rot13:key:AAAA:BBBB")

		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Tampered ciphertext fails", func(t *testing.T) {
		engine, _ := newEngine(t, false)

		encrypted, err := engine.Encrypt(ctx, "patient", "email", fieldval.String("john@example.com"))
		require.NoError(t, err)

		cv, err := cryptoDomain.ParseCipherValue(encrypted.(string))
		require.NoError(t, err)
		cv.Ciphertext[0] ^= 0xff

		_, err = engine.Decrypt(ctx, cv.String())
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}
