package service

import (
	"context"
	"fmt"

	"github.com/allisson/phivault/internal/audit"
	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
	"github.com/allisson/phivault/internal/fieldval"
	"github.com/allisson/phivault/internal/policy"
)

// auditActor identifies the engine in audit events.
const auditActor = "encryption-engine"

// FieldEngineConfig parameterizes the single engine implementation. There is
// one engine; disabled mode and algorithm selection are configuration, not
// forked copies of the code.
type FieldEngineConfig struct {
	// KeyAltName is the alternate name of the data key governing PHI fields.
	KeyAltName string

	// RandomAlgorithm is the AEAD used for fields under the random policy.
	// Deterministic fields always use AESGCMDeterministic.
	RandomAlgorithm cryptoDomain.Algorithm

	// Disabled turns the engine into a passthrough. This is the explicit
	// documentation/offline mode chosen at boot; it is never entered as a
	// fallback for failed encryption.
	Disabled bool
}

// FieldEngine encrypts and decrypts individual field values according to the
// field policy. It is stateless with respect to its inputs and safe for
// concurrent use; the only shared state is the key vault behind the
// DataKeyProvider.
type FieldEngine struct {
	config      FieldEngineConfig
	fieldPolicy *policy.FieldPolicy
	keys        DataKeyProvider
	aeadManager AEADManager
	auditSink   audit.Sink
}

// NewFieldEngine creates a field encryption engine. All collaborators are
// explicit; the engine is handed to codecs and use cases by the caller,
// never fetched from global state.
func NewFieldEngine(
	config FieldEngineConfig,
	fieldPolicy *policy.FieldPolicy,
	keys DataKeyProvider,
	aeadManager AEADManager,
	auditSink audit.Sink,
) *FieldEngine {
	return &FieldEngine{
		config:      config,
		fieldPolicy: fieldPolicy,
		keys:        keys,
		aeadManager: aeadManager,
		auditSink:   auditSink,
	}
}

// Disabled reports whether the engine is running in the explicit
// documentation/offline passthrough mode.
func (e *FieldEngine) Disabled() bool {
	return e.config.Disabled
}

// Encrypt transforms one field value into its storage representation.
//
// Null values and fields outside the policy pass through unchanged. Governed
// fields are canonicalized (composites) or scalar-encoded, then encrypted
// into a self-describing cipher value string. Any failure aborts with an
// error; the engine never silently stores plaintext for a governed field.
func (e *FieldEngine) Encrypt(
	ctx context.Context,
	entityKind, fieldName string,
	value fieldval.Value,
) (any, error) {
	if value.IsNull() {
		return nil, nil
	}

	alg := e.fieldPolicy.AlgorithmFor(entityKind, fieldName)
	if alg == policy.AlgorithmNone || e.config.Disabled {
		return fieldval.ToNative(value), nil
	}

	plaintext, err := e.encodePlaintext(value)
	if err != nil {
		e.auditFailure(ctx, audit.EventEncryptionFailure, entityKind, fieldName, err)
		return nil, fmt.Errorf("%w: field %s.%s", cryptoDomain.ErrEncryptionFailed, entityKind, fieldName)
	}

	dataKey, err := e.keys.GetOrCreate(ctx, e.config.KeyAltName)
	if err != nil {
		e.auditFailure(ctx, audit.EventEncryptionFailure, entityKind, fieldName, err)
		return nil, err
	}

	cipherAlg := e.cipherAlgorithm(alg)
	aead, err := e.aeadManager.CreateCipher(dataKey.Key, cipherAlg)
	if err != nil {
		e.auditFailure(ctx, audit.EventEncryptionFailure, entityKind, fieldName, err)
		return nil, err
	}

	ciphertext, nonce, err := aead.Encrypt([]byte(plaintext), nil)
	if err != nil {
		e.auditFailure(ctx, audit.EventEncryptionFailure, entityKind, fieldName, err)
		return nil, fmt.Errorf("%w: field %s.%s", cryptoDomain.ErrEncryptionFailed, entityKind, fieldName)
	}

	cipherValue := cryptoDomain.CipherValue{
		Algorithm:  cipherAlg,
		KeyAltName: dataKey.AltName,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	return cipherValue.String(), nil
}

// Decrypt is the inverse of Encrypt for a single raw storage value. Values
// that are not recognized cipher values are returned unchanged, which is how
// legacy plaintext and policy-exempt fields pass through safely. Recognized
// cipher values that cannot be decrypted yield ErrDecryptionFailed.
func (e *FieldEngine) Decrypt(ctx context.Context, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok || !cryptoDomain.IsCipherValue(s) {
		return raw, nil
	}

	cipherValue, err := cryptoDomain.ParseCipherValue(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrDecryptionFailed, err)
	}

	plaintext, err := e.DecryptCipherValue(ctx, cipherValue)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// DecryptCipherValue decrypts a parsed cipher value and returns the plaintext
// string: the scalar encoding or the canonical composite encoding, not yet
// decanonicalized.
func (e *FieldEngine) DecryptCipherValue(
	ctx context.Context,
	cipherValue cryptoDomain.CipherValue,
) (string, error) {
	dataKey, err := e.keys.Get(ctx, cipherValue.KeyAltName)
	if err != nil {
		return "", err
	}

	aead, err := e.aeadManager.CreateCipher(dataKey.Key, cipherValue.Algorithm)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Decrypt(cipherValue.Ciphertext, cipherValue.Nonce, nil)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// encodePlaintext produces the cipher input for a value: the canonical
// encoding for composites, the scalar encoding otherwise.
func (e *FieldEngine) encodePlaintext(value fieldval.Value) (string, error) {
	if value.IsComposite() {
		return fieldval.Canonicalize(value)
	}
	return fieldval.EncodeScalar(value)
}

// cipherAlgorithm maps a policy algorithm to the concrete AEAD construction.
func (e *FieldEngine) cipherAlgorithm(alg policy.Algorithm) cryptoDomain.Algorithm {
	if alg == policy.AlgorithmDeterministic {
		return cryptoDomain.AESGCMDeterministic
	}
	return e.config.RandomAlgorithm
}

// auditFailure reports a cryptographic failure to the audit sink. Metadata
// names the field, never its value.
func (e *FieldEngine) auditFailure(ctx context.Context, kind, entityKind, fieldName string, err error) {
	if e.auditSink == nil {
		return
	}
	e.auditSink.Log(ctx, audit.NewEvent(kind, auditActor, map[string]any{
		"entity_kind": entityKind,
		"field_name":  fieldName,
		"error":       err.Error(),
	}))
}
