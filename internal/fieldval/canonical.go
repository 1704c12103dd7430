package fieldval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/allisson/phivault/internal/errors"
)

// Canonicalize serializes a composite value to its canonical string encoding:
// JSON with lexicographically sorted map keys, no insignificant whitespace,
// timestamps as RFC 3339 strings. Equal values always canonicalize to
// byte-identical strings, which is what makes deterministic encryption of
// composites meaningful.
func Canonicalize(v Value) (string, error) {
	if !v.IsComposite() {
		return "", fmt.Errorf("%w: canonical encoding is defined for composite values, got %s",
			apperrors.ErrInvalidInput, v.kind)
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// writeCanonical emits the canonical encoding of a value. The switch is
// exhaustive over the union; an unknown kind is a programming error.
func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString, KindID:
		writeJSONString(buf, v.str)
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.num, 10))
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindTime:
		writeJSONString(buf, v.t.UTC().Format(time.RFC3339Nano))
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, key := range sortedKeys(v.m) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, key)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v.m[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: unknown value kind %d", apperrors.ErrInvalidInput, int(v.kind))
	}
	return nil
}

// writeJSONString writes s as a JSON string literal. json.Marshal of a string
// cannot fail and produces stable escaping.
func writeJSONString(buf *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s)
	buf.Write(encoded)
}

// Decanonicalize parses a canonical encoding back into a composite value.
// It returns ErrInvalidInput if the input is not valid JSON or does not
// decode to a list or map.
func Decanonicalize(s string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("%w: not a canonical composite encoding", apperrors.ErrInvalidInput)
	}
	// Reject trailing garbage after the first JSON value.
	if dec.More() {
		return Null(), fmt.Errorf("%w: trailing data after canonical encoding", apperrors.ErrInvalidInput)
	}

	v, err := FromNative(raw)
	if err != nil {
		return Null(), err
	}
	if !v.IsComposite() {
		return Null(), fmt.Errorf("%w: canonical encoding must be a list or map, got %s",
			apperrors.ErrInvalidInput, v.Kind())
	}
	return v, nil
}

// LooksCanonical reports whether s could plausibly be a canonical composite
// encoding. Used by the codec to distinguish an unencrypted canonical string
// from arbitrary plaintext without paying for a full parse.
func LooksCanonical(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")
}

// FromNative converts a decoded storage value (the shapes produced by
// encoding/json and the SQL drivers) into a Value. Integers that arrive as
// float64 are accepted when they are exact; other floats are rejected because
// the union intentionally has no floating-point kind.
func FromNative(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return Null(), fmt.Errorf("%w: non-integer number %v", apperrors.ErrInvalidInput, val)
		}
		return Int(int64(val)), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return Null(), fmt.Errorf("%w: non-integer number %q", apperrors.ErrInvalidInput, val.String())
		}
		return Int(n), nil
	case time.Time:
		return Time(val), nil
	case []string:
		return StringList(val...), nil
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			converted, err := FromNative(item)
			if err != nil {
				return Null(), err
			}
			items[i] = converted
		}
		return List(items...), nil
	case map[string]any:
		entries := make(map[string]Value, len(val))
		for k, item := range val {
			converted, err := FromNative(item)
			if err != nil {
				return Null(), err
			}
			entries[k] = converted
		}
		return Map(entries), nil
	case map[string]string:
		return StringMap(val), nil
	default:
		return Null(), fmt.Errorf("%w: unsupported native type %T", apperrors.ErrInvalidInput, raw)
	}
}

// ToNative converts a value to the plain Go representation placed in a
// storage document for fields that are not encrypted.
func ToNative(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString, KindID:
		return v.str
	case KindInt:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = ToNative(item)
		}
		return items
	case KindMap:
		entries := make(map[string]any, len(v.m))
		for k, item := range v.m {
			entries[k] = ToNative(item)
		}
		return entries
	default:
		return nil
	}
}

// CoerceScalar converts a raw storage value into a scalar of the declared
// kind, tolerating the JSON round-trip representations: timestamps stored as
// RFC 3339 strings and integers stored as JSON numbers.
func CoerceScalar(raw any, kind Kind) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	if s, ok := raw.(string); ok && kind != KindString && kind != KindID {
		return DecodeScalar(s, kind)
	}

	v, err := FromNative(raw)
	if err != nil {
		return Null(), err
	}
	switch {
	case v.kind == kind:
		return v, nil
	case kind == KindID && v.kind == KindString:
		return ID(v.str), nil
	case kind == KindString && v.kind == KindID:
		return String(v.str), nil
	default:
		return Null(), fmt.Errorf("%w: expected %s, got %s", apperrors.ErrInvalidInput, kind, v.kind)
	}
}
