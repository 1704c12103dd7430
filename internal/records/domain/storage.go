package domain

import (
	"time"

	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
)

// StorageDocument is the at-rest representation of a record: a string-keyed
// map where each value is plaintext, a cipher value string, or a legacy
// plaintext composite written before field encryption existed. The three-way
// ambiguity on read is a permanent invariant of the format, not a
// transitional state.
type StorageDocument map[string]any

// Document wraps a storage document with its identity and bookkeeping
// columns, the unit handled by the document repository.
type Document struct {
	ID         string
	EntityKind string
	Data       StorageDocument
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StorageValueKind classifies one raw storage value.
type StorageValueKind int

const (
	// StoragePlain is a plaintext value: a policy-exempt field or a legacy
	// never-encrypted scalar.
	StoragePlain StorageValueKind = iota

	// StorageCipher is a recognized cipher value string.
	StorageCipher

	// StorageLegacyComposite is a native composite (array or object) stored
	// before encryption governed the field.
	StorageLegacyComposite
)

// StorageValue is a raw storage value decoded once at the boundary. The codec
// matches on Kind exhaustively instead of re-sniffing types per call site.
type StorageValue struct {
	Kind StorageValueKind
	Raw  any
}

// ClassifyStorageValue decodes a raw document value into its storage variant.
// Nulls classify as plain; the codec treats them as absent.
func ClassifyStorageValue(raw any) StorageValue {
	switch val := raw.(type) {
	case string:
		if cryptoDomain.IsCipherValue(val) {
			return StorageValue{Kind: StorageCipher, Raw: val}
		}
		return StorageValue{Kind: StoragePlain, Raw: val}
	case []any, []string, map[string]any, map[string]string:
		return StorageValue{Kind: StorageLegacyComposite, Raw: val}
	default:
		return StorageValue{Kind: StoragePlain, Raw: raw}
	}
}
