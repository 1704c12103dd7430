// Package codec implements the bidirectional mapping between plaintext domain
// records and their at-rest storage documents.
//
// Writes fail closed: any encryption failure aborts the whole ToStorage call,
// because a document that silently stores PHI unencrypted is a compliance
// violation, not a degraded outcome. Reads recover per field: an unreadable
// field is replaced with a typed default and reported to the audit sink, and
// the rest of the record is assembled normally.
package codec

import (
	"context"
	"fmt"

	"github.com/allisson/phivault/internal/audit"
	cryptoService "github.com/allisson/phivault/internal/crypto/service"
	"github.com/allisson/phivault/internal/fieldval"
	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// auditActor identifies the codec in audit events.
const auditActor = "document-codec"

// Codec transforms records to and from their storage documents. Stateless per
// call; safe for concurrent use.
type Codec struct {
	engine    *cryptoService.FieldEngine
	auditSink audit.Sink
}

// New creates a document codec.
func New(engine *cryptoService.FieldEngine, auditSink audit.Sink) *Codec {
	return &Codec{engine: engine, auditSink: auditSink}
}

// ToStorage encrypts a record's fields into a storage document. Every
// declared field is passed through the encryption engine, which applies the
// field policy; null fields are omitted. Identifier fields are copied
// verbatim since they are the join key into other collections and are never
// governed.
func (c *Codec) ToStorage(
	ctx context.Context,
	entityKind string,
	fields map[string]fieldval.Value,
) (recordsDomain.StorageDocument, error) {
	schema, ok := recordsDomain.SchemaFor(entityKind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", recordsDomain.ErrUnknownEntityKind, entityKind)
	}

	doc := make(recordsDomain.StorageDocument, len(schema))
	for _, spec := range schema {
		value, ok := fields[spec.Name]
		if !ok || value.IsNull() {
			continue
		}

		stored, err := c.engine.Encrypt(ctx, entityKind, spec.Name, value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s.%s: %w", entityKind, spec.Name, err)
		}
		if stored != nil {
			doc[spec.Name] = stored
		}
	}
	return doc, nil
}

// FromStorage decrypts a storage document into a field-value map. Each field
// is classified once (plain, cipher, legacy composite) and decoded according
// to its declared schema. Unreadable fields are defaulted and audited; a
// single bad field never fails the read.
func (c *Codec) FromStorage(
	ctx context.Context,
	entityKind string,
	doc recordsDomain.StorageDocument,
) (map[string]fieldval.Value, error) {
	schema, ok := recordsDomain.SchemaFor(entityKind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", recordsDomain.ErrUnknownEntityKind, entityKind)
	}

	fields := make(map[string]fieldval.Value, len(schema))
	for _, spec := range schema {
		raw, ok := doc[spec.Name]
		if !ok || raw == nil {
			fields[spec.Name] = fieldval.Empty(spec.Kind)
			continue
		}
		fields[spec.Name] = c.decodeField(ctx, entityKind, spec, raw)
	}
	return fields, nil
}

// decodeField decodes one raw storage value into a typed field value,
// recovering with a typed default on any failure.
func (c *Codec) decodeField(
	ctx context.Context,
	entityKind string,
	spec recordsDomain.FieldSpec,
	raw any,
) fieldval.Value {
	sv := recordsDomain.ClassifyStorageValue(raw)

	switch sv.Kind {
	case recordsDomain.StorageCipher:
		plaintext, err := c.engine.Decrypt(ctx, sv.Raw)
		if err != nil {
			c.auditFailure(ctx, audit.EventDecryptionFailure, entityKind, spec.Name, err)
			return fieldval.Empty(spec.Kind)
		}
		return c.decodePlaintext(ctx, entityKind, spec, plaintext)

	case recordsDomain.StorageLegacyComposite:
		if !spec.Composite {
			c.auditFailure(ctx, audit.EventSchemaDrift, entityKind, spec.Name,
				fmt.Errorf("%w: composite stored for scalar field", recordsDomain.ErrSchemaDrift))
			return fieldval.Empty(spec.Kind)
		}
		value, err := fieldval.FromNative(sv.Raw)
		if err != nil || value.Kind() != spec.Kind {
			c.auditFailure(ctx, audit.EventSchemaDrift, entityKind, spec.Name,
				fmt.Errorf("%w: unreadable legacy composite", recordsDomain.ErrSchemaDrift))
			return fieldval.Empty(spec.Kind)
		}
		return value

	default:
		return c.decodePlaintext(ctx, entityKind, spec, sv.Raw)
	}
}

// decodePlaintext decodes a decrypted (or never-encrypted) plain value
// according to the field's declared shape. Composite fields tolerate three
// storage shapes in priority order: a native composite, a string holding the
// canonical encoding, and anything else, which is drift and defaults.
func (c *Codec) decodePlaintext(
	ctx context.Context,
	entityKind string,
	spec recordsDomain.FieldSpec,
	raw any,
) fieldval.Value {
	if spec.Composite {
		return c.decodeComposite(ctx, entityKind, spec, raw)
	}

	value, err := fieldval.CoerceScalar(raw, spec.Kind)
	if err != nil {
		c.auditFailure(ctx, audit.EventSchemaDrift, entityKind, spec.Name,
			fmt.Errorf("%w: %v", recordsDomain.ErrSchemaDrift, err))
		return fieldval.Empty(spec.Kind)
	}
	return value
}

func (c *Codec) decodeComposite(
	ctx context.Context,
	entityKind string,
	spec recordsDomain.FieldSpec,
	raw any,
) fieldval.Value {
	// Shape 1: already a native composite (oldest, never-encrypted schema).
	if sv := recordsDomain.ClassifyStorageValue(raw); sv.Kind == recordsDomain.StorageLegacyComposite {
		value, err := fieldval.FromNative(raw)
		if err == nil && value.Kind() == spec.Kind {
			return value
		}
	}

	// Shape 2: a string holding the canonical encoding (current schema).
	if s, ok := raw.(string); ok && fieldval.LooksCanonical(s) {
		value, err := fieldval.Decanonicalize(s)
		if err == nil && value.Kind() == spec.Kind {
			return value
		}
	}

	// Shape 3: anything else is drift; default and audit.
	c.auditFailure(ctx, audit.EventSchemaDrift, entityKind, spec.Name,
		fmt.Errorf("%w: value matches no tolerated composite shape", recordsDomain.ErrSchemaDrift))
	return fieldval.Empty(spec.Kind)
}

// auditFailure reports a per-field recovery to the audit sink. Metadata names
// the field, never its value.
func (c *Codec) auditFailure(ctx context.Context, kind, entityKind, fieldName string, err error) {
	if c.auditSink == nil {
		return
	}
	c.auditSink.Log(ctx, audit.NewEvent(kind, auditActor, map[string]any{
		"entity_kind": entityKind,
		"field_name":  fieldName,
		"error":       err.Error(),
	}))
}
