// Package policy defines the static field encryption policy: the mapping from
// (entity kind, field name) to the encryption algorithm governing that field.
//
// The policy is configuration. It is constructed once at process start, either
// from the built-in defaults or from a YAML file, and is read-only thereafter.
// Lookup is a total function: a field absent from the table resolves to
// AlgorithmNone and is stored untouched.
package policy

import (
	"fmt"
	"os"

	"github.com/jellydator/validation"
	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/phivault/internal/errors"
)

// Algorithm selects how a governed field is encrypted at rest.
type Algorithm string

const (
	// AlgorithmNone marks a field that is stored as plaintext. Fields absent
	// from the policy table resolve to this value and are never handed to the
	// encryption engine.
	AlgorithmNone Algorithm = "none"

	// AlgorithmDeterministic produces identical ciphertext for identical
	// plaintext under the same key, enabling exact-match search. Equal
	// plaintexts leak as equal ciphertexts, which is accepted only for fields
	// that must remain searchable (identifiers, names, emails, phone numbers).
	AlgorithmDeterministic Algorithm = "deterministic"

	// AlgorithmRandom produces different ciphertext on every call, leaking
	// nothing about equality at the cost of losing searchability. Used for
	// everything sensitive that never needs to be filtered by value.
	AlgorithmRandom Algorithm = "random"

	// AlgorithmRange is reserved in the wire format for range-query support
	// over encrypted fields. No field may be assigned to it: range queries
	// are out of scope and the loader rejects policies that use it.
	AlgorithmRange Algorithm = "range"
)

// FieldPolicy is the immutable policy table. Safe for concurrent use.
type FieldPolicy struct {
	entries map[string]map[string]Algorithm
}

// AlgorithmFor returns the algorithm governing the given field. Missing
// entities and fields resolve to AlgorithmNone.
func (p *FieldPolicy) AlgorithmFor(entityKind, fieldName string) Algorithm {
	fields, ok := p.entries[entityKind]
	if !ok {
		return AlgorithmNone
	}
	alg, ok := fields[fieldName]
	if !ok {
		return AlgorithmNone
	}
	return alg
}

// Governed reports whether the field is subject to encryption.
func (p *FieldPolicy) Governed(entityKind, fieldName string) bool {
	return p.AlgorithmFor(entityKind, fieldName) != AlgorithmNone
}

// EntityKinds returns the entity kinds present in the table.
func (p *FieldPolicy) EntityKinds() []string {
	kinds := make([]string, 0, len(p.entries))
	for kind := range p.entries {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Fields returns a copy of the per-field algorithms for an entity kind.
func (p *FieldPolicy) Fields(entityKind string) map[string]Algorithm {
	fields, ok := p.entries[entityKind]
	if !ok {
		return nil
	}
	out := make(map[string]Algorithm, len(fields))
	for name, alg := range fields {
		out[name] = alg
	}
	return out
}

// fileEntry is the wire shape of one policy entry:
//
//	patient:
//	  ssn:
//	    algorithm: deterministic
type fileEntry struct {
	Algorithm string `yaml:"algorithm"`
}

// New builds a policy table from the wire representation, validating every
// entry. Only "deterministic" and "random" may be assigned; "none" entries
// are redundant (absence already means none) and rejected to keep the table
// honest, and "range" is rejected as unsupported.
func New(table map[string]map[string]Algorithm) (*FieldPolicy, error) {
	entries := make(map[string]map[string]Algorithm, len(table))
	for entityKind, fields := range table {
		if err := validation.Validate(entityKind, validation.Required); err != nil {
			return nil, fmt.Errorf("%w: entity kind must not be empty", apperrors.ErrInvalidInput)
		}
		entry := make(map[string]Algorithm, len(fields))
		for fieldName, alg := range fields {
			if err := validation.Validate(fieldName, validation.Required); err != nil {
				return nil, fmt.Errorf("%w: field name must not be empty (entity %q)",
					apperrors.ErrInvalidInput, entityKind)
			}
			switch alg {
			case AlgorithmDeterministic, AlgorithmRandom:
				entry[fieldName] = alg
			case AlgorithmRange:
				return nil, fmt.Errorf("%w: field %s.%s uses unsupported algorithm %q",
					apperrors.ErrInvalidInput, entityKind, fieldName, alg)
			default:
				return nil, fmt.Errorf("%w: field %s.%s uses unknown algorithm %q",
					apperrors.ErrInvalidInput, entityKind, fieldName, alg)
			}
		}
		entries[entityKind] = entry
	}
	return &FieldPolicy{entries: entries}, nil
}

// LoadFile reads a policy table from a YAML file.
func LoadFile(path string) (*FieldPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read field policy file")
	}

	var raw map[string]map[string]fileEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid field policy file: %v", apperrors.ErrInvalidInput, err)
	}

	table := make(map[string]map[string]Algorithm, len(raw))
	for entityKind, fields := range raw {
		entry := make(map[string]Algorithm, len(fields))
		for fieldName, spec := range fields {
			entry[fieldName] = Algorithm(spec.Algorithm)
		}
		table[entityKind] = entry
	}
	return New(table)
}

// Default returns the built-in HIPAA field policy.
//
// Deterministic entries are the fields the application filters by exact
// value; everything else sensitive is randomized.
func Default() *FieldPolicy {
	p, err := New(map[string]map[string]Algorithm{
		"patient": {
			"firstName":        AlgorithmDeterministic,
			"lastName":         AlgorithmDeterministic,
			"email":            AlgorithmDeterministic,
			"phone":            AlgorithmDeterministic,
			"ssn":              AlgorithmDeterministic,
			"dateOfBirth":      AlgorithmDeterministic,
			"address":          AlgorithmRandom,
			"diagnosis":        AlgorithmRandom,
			"medications":      AlgorithmRandom,
			"allergies":        AlgorithmRandom,
			"notes":            AlgorithmRandom,
			"insuranceDetails": AlgorithmRandom,
			"tags":             AlgorithmRandom,
		},
		"message": {
			"sender":      AlgorithmDeterministic,
			"subject":     AlgorithmRandom,
			"body":        AlgorithmRandom,
			"attachments": AlgorithmRandom,
		},
	})
	if err != nil {
		// The built-in table is statically valid.
		panic(err)
	}
	return p
}
