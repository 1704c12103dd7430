// Package rbac implements role-based field projection: the pure function that
// maps a decrypted record and a caller's roles to the externally visible
// field subset.
//
// Projection is an explicit allow-list walk. Fields reach the view only by
// being named in the base set or in a held role's allow-list; there is no
// "include everything then redact" path, so a newly added sensitive field is
// invisible until someone deliberately allows it.
package rbac

import (
	"fmt"
	"os"
	"sort"

	"github.com/jellydator/validation"
	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/phivault/internal/errors"
	"github.com/allisson/phivault/internal/fieldval"
)

// AllowList is the immutable projection table: an always-visible base field
// set plus per-role allow-lists. Safe for concurrent use.
type AllowList struct {
	baseFields map[string]struct{}
	roles      map[string]map[string]struct{}
}

// New builds an allow-list table, validating that every role and field name
// is non-empty.
func New(baseFields []string, roles map[string][]string) (*AllowList, error) {
	base := make(map[string]struct{}, len(baseFields))
	for _, name := range baseFields {
		if err := validation.Validate(name, validation.Required); err != nil {
			return nil, fmt.Errorf("%w: base field name must not be empty", apperrors.ErrInvalidInput)
		}
		base[name] = struct{}{}
	}

	table := make(map[string]map[string]struct{}, len(roles))
	for role, fields := range roles {
		if err := validation.Validate(role, validation.Required); err != nil {
			return nil, fmt.Errorf("%w: role name must not be empty", apperrors.ErrInvalidInput)
		}
		entry := make(map[string]struct{}, len(fields))
		for _, name := range fields {
			if err := validation.Validate(name, validation.Required); err != nil {
				return nil, fmt.Errorf("%w: field name must not be empty (role %q)",
					apperrors.ErrInvalidInput, role)
			}
			entry[name] = struct{}{}
		}
		table[role] = entry
	}

	return &AllowList{baseFields: base, roles: table}, nil
}

// allowListFile is the wire shape of the YAML configuration:
//
//	baseFields: [id, firstName]
//	roles:
//	  doctor: [ssn, diagnosis]
type allowListFile struct {
	BaseFields []string            `yaml:"baseFields"`
	Roles      map[string][]string `yaml:"roles"`
}

// LoadFile reads an allow-list table from a YAML file.
func LoadFile(path string) (*AllowList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read role allow-list file")
	}

	var raw allowListFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid role allow-list file: %v", apperrors.ErrInvalidInput, err)
	}
	return New(raw.BaseFields, raw.Roles)
}

// VisibleFields returns the sorted union of the base set and the allow-lists
// of the held roles. Unknown roles contribute only the base set.
func (a *AllowList) VisibleFields(roles []string) []string {
	visible := make(map[string]struct{}, len(a.baseFields))
	for name := range a.baseFields {
		visible[name] = struct{}{}
	}
	for _, role := range roles {
		for name := range a.roles[role] {
			visible[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(visible))
	for name := range visible {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Project computes the role-scoped view of a decrypted record. Deterministic
// and side-effect-free: the result contains exactly the visible fields that
// are present and non-null in the record, converted to plain Go values.
func (a *AllowList) Project(fields map[string]fieldval.Value, roles []string) map[string]any {
	view := make(map[string]any)
	for _, name := range a.VisibleFields(roles) {
		value, ok := fields[name]
		if !ok || value.IsNull() {
			continue
		}
		view[name] = fieldval.ToNative(value)
	}
	return view
}

// Default returns the built-in role allow-list for patient records.
//
// The receptionist handles scheduling and billing, never clinical data; the
// patient sees their own care data but not internal identifiers or clinical
// notes; the doctor sees everything clinical.
func Default() *AllowList {
	a, err := New(
		[]string{"id", "firstName", "lastName", "createdAt"},
		map[string][]string{
			"doctor": {
				"ssn", "dateOfBirth", "email", "phone", "address",
				"diagnosis", "medications", "allergies", "notes", "tags",
			},
			"nurse": {
				"dateOfBirth", "phone",
				"diagnosis", "medications", "allergies", "notes",
			},
			"receptionist": {
				"email", "phone", "address", "dateOfBirth", "insuranceDetails",
			},
			"patient-self": {
				"email", "phone", "address", "dateOfBirth",
				"medications", "allergies", "insuranceDetails", "tags",
			},
		},
	)
	if err != nil {
		// The built-in table is statically valid.
		panic(err)
	}
	return a
}
