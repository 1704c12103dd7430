// Package fieldval defines the closed value union used for PHI record fields
// and the canonical string encoding that lets a scalar-oriented cipher operate
// on composite values.
//
// Every field of a domain record is represented as a Value. The union is
// deliberately closed: canonicalization and storage conversion are defined
// exhaustively over the listed kinds instead of via runtime type inspection
// of arbitrary values.
package fieldval

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	apperrors "github.com/allisson/phivault/internal/errors"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindNull is the absent value. Encrypting or decrypting null is a no-op.
	KindNull Kind = iota
	// KindString is a UTF-8 string scalar.
	KindString
	// KindInt is a 64-bit integer scalar.
	KindInt
	// KindBool is a boolean scalar.
	KindBool
	// KindTime is a timestamp scalar, canonically encoded as RFC 3339 with
	// nanosecond precision in UTC.
	KindTime
	// KindID is an opaque identifier scalar. Identifiers are never encrypted;
	// they are the join key into other collections.
	KindID
	// KindList is an ordered list of values.
	KindList
	// KindMap is a string-keyed map of values.
	KindMap
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindID:
		return "id"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged union over the field value kinds. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	b    bool
	t    time.Time
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string scalar value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer scalar value.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Bool returns a boolean scalar value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a timestamp scalar value normalized to UTC.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t.UTC()} }

// ID returns an identifier scalar value.
func ID(s string) Value { return Value{kind: KindID, str: s} }

// List returns an ordered list value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map returns a string-keyed map value.
func Map(entries map[string]Value) Value { return Value{kind: KindMap, m: entries} }

// StringList is a convenience constructor for a list of string scalars.
func StringList(items ...string) Value {
	values := make([]Value, len(items))
	for i, item := range items {
		values[i] = String(item)
	}
	return List(values...)
}

// StringMap is a convenience constructor for a map of string scalars.
func StringMap(entries map[string]string) Value {
	values := make(map[string]Value, len(entries))
	for k, v := range entries {
		values[k] = String(v)
	}
	return Map(values)
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsComposite reports whether the value is a list or a map.
func (v Value) IsComposite() bool { return v.kind == KindList || v.kind == KindMap }

// Str returns the string payload for KindString and KindID values.
func (v Value) Str() string { return v.str }

// IntVal returns the integer payload for KindInt values.
func (v Value) IntVal() int64 { return v.num }

// BoolVal returns the boolean payload for KindBool values.
func (v Value) BoolVal() bool { return v.b }

// TimeVal returns the timestamp payload for KindTime values.
func (v Value) TimeVal() time.Time { return v.t }

// ListVal returns the items for KindList values.
func (v Value) ListVal() []Value { return v.list }

// MapVal returns the entries for KindMap values.
func (v Value) MapVal() map[string]Value { return v.m }

// Strings flattens a KindList of string scalars to a []string, skipping
// non-string items. Convenient for record accessors.
func (v Value) Strings() []string {
	if v.kind != KindList {
		return nil
	}
	out := make([]string, 0, len(v.list))
	for _, item := range v.list {
		if item.kind == KindString || item.kind == KindID {
			out = append(out, item.str)
		}
	}
	return out
}

// StringEntries flattens a KindMap of string scalars to a map[string]string,
// skipping non-string entries.
func (v Value) StringEntries() map[string]string {
	if v.kind != KindMap {
		return nil
	}
	out := make(map[string]string, len(v.m))
	for k, item := range v.m {
		if item.kind == KindString || item.kind == KindID {
			out[k] = item.str
		}
	}
	return out
}

// Equal reports deep equality of two values. Timestamps compare with
// time.Time.Equal, so equivalent instants in different locations are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString, KindID:
		return a.str == b.str
	case KindInt:
		return a.num == b.num
	case KindBool:
		return a.b == b.b
	case KindTime:
		return a.t.Equal(b.t)
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// EncodeScalar converts a scalar value to the string form handed to the
// cipher. The encoding is total over the scalar kinds and reversible through
// DecodeScalar given the declared kind.
func EncodeScalar(v Value) (string, error) {
	switch v.kind {
	case KindString, KindID:
		return v.str, nil
	case KindInt:
		return strconv.FormatInt(v.num, 10), nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindTime:
		return v.t.UTC().Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("%w: cannot encode %s as scalar", apperrors.ErrInvalidInput, v.kind)
	}
}

// DecodeScalar parses the cipher-plaintext string form back into a scalar
// value of the declared kind.
func DecodeScalar(s string, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		return String(s), nil
	case KindID:
		return ID(s), nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Null(), fmt.Errorf("%w: invalid integer %q", apperrors.ErrInvalidInput, s)
		}
		return Int(n), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Null(), fmt.Errorf("%w: invalid boolean %q", apperrors.ErrInvalidInput, s)
		}
		return Bool(b), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Null(), fmt.Errorf("%w: invalid timestamp %q", apperrors.ErrInvalidInput, s)
		}
		return Time(t), nil
	default:
		return Null(), fmt.Errorf("%w: cannot decode scalar of kind %s", apperrors.ErrInvalidInput, kind)
	}
}

// Empty returns the empty value of the given kind: an empty list, an empty
// map, or null for scalars. Used by the codec when substituting a typed
// default for an unreadable field.
func Empty(kind Kind) Value {
	switch kind {
	case KindList:
		return List()
	case KindMap:
		return Map(map[string]Value{})
	default:
		return Null()
	}
}

// sortedKeys returns the map keys in lexicographic order.
func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
