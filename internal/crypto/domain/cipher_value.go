package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// cipherValuePrefix tags every encrypted field value in storage. Values
// without this prefix are treated as plaintext on read, which is how legacy
// never-encrypted records and policy-exempt fields pass through safely.
const cipherValuePrefix = "pv1"

// CipherValue is the self-describing encrypted representation of one field.
//
// The storage form is "pv1:algorithm:keyAltName:nonce-base64:ciphertext-base64".
// It carries everything needed to decrypt without external bookkeeping: the
// algorithm tag selects the cipher and the key alt name selects the data key.
//
// Fields:
//   - Algorithm: The AEAD construction used (e.g., AESGCMDeterministic)
//   - KeyAltName: Alternate name of the data key in the key vault
//   - Nonce: The 12-byte nonce used for this encryption
//   - Ciphertext: The encrypted data with authentication tag appended
type CipherValue struct {
	Algorithm  Algorithm
	KeyAltName string
	Nonce      []byte
	Ciphertext []byte
}

// IsCipherValue reports whether a raw storage string claims the cipher value
// format. A recognizer, not a validator: parsing may still fail.
func IsCipherValue(s string) bool {
	return strings.HasPrefix(s, cipherValuePrefix+":")
}

// ParseCipherValue parses the storage form of a cipher value.
//
// Returns ErrMalformedCipherValue if the value does not have exactly five
// colon-separated parts, the prefix or algorithm is unknown, the key alt
// name is empty, or the base64 payloads do not decode.
func ParseCipherValue(content string) (CipherValue, error) {
	parts := strings.SplitN(content, ":", 5)
	if len(parts) != 5 || parts[0] != cipherValuePrefix {
		return CipherValue{}, fmt.Errorf(
			"%w: expected format 'pv1:algorithm:key:nonce:ciphertext'",
			ErrMalformedCipherValue,
		)
	}

	alg := Algorithm(parts[1])
	switch alg {
	case AESGCM, ChaCha20, AESGCMDeterministic:
	default:
		return CipherValue{}, fmt.Errorf("%w: unknown algorithm %q", ErrMalformedCipherValue, parts[1])
	}

	if parts[2] == "" {
		return CipherValue{}, fmt.Errorf("%w: empty key alt name", ErrMalformedCipherValue)
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return CipherValue{}, fmt.Errorf("%w: invalid nonce encoding", ErrMalformedCipherValue)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return CipherValue{}, fmt.Errorf("%w: invalid ciphertext encoding", ErrMalformedCipherValue)
	}

	return CipherValue{
		Algorithm:  alg,
		KeyAltName: parts[2],
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// String serializes the cipher value to its storage form. Round-trips with
// ParseCipherValue. Because base64 is canonical, a deterministic cipher value
// serializes to byte-identical strings for identical (plaintext, key) inputs.
func (cv CipherValue) String() string {
	return fmt.Sprintf(
		"%s:%s:%s:%s:%s",
		cipherValuePrefix,
		cv.Algorithm,
		cv.KeyAltName,
		base64.StdEncoding.EncodeToString(cv.Nonce),
		base64.StdEncoding.EncodeToString(cv.Ciphertext),
	)
}
