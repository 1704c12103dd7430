// Package domain defines the PHI record entities, their field schemas and the
// storage document shapes handled by the codec.
//
// A record lives in memory as plaintext, fully typed, and is owned by
// application code between load and save. Its storage form is a string-keyed
// document where each governed field holds a cipher value; the two never mix.
package domain

import (
	"time"

	"github.com/allisson/phivault/internal/fieldval"
)

// Entity kinds handled by the codec. Each kind has a declared field schema.
const (
	EntityKindPatient = "patient"
	EntityKindMessage = "message"
)

// FieldSpec declares one field of an entity schema: its name, the scalar kind
// used to coerce storage values, and whether the field is composite.
type FieldSpec struct {
	Name      string
	Kind      fieldval.Kind
	Composite bool
}

// Schema is the ordered field declaration of an entity kind.
type Schema []FieldSpec

// Field returns the spec for a field name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

var patientSchema = Schema{
	{Name: "id", Kind: fieldval.KindID},
	{Name: "firstName", Kind: fieldval.KindString},
	{Name: "lastName", Kind: fieldval.KindString},
	{Name: "email", Kind: fieldval.KindString},
	{Name: "phone", Kind: fieldval.KindString},
	{Name: "ssn", Kind: fieldval.KindString},
	{Name: "dateOfBirth", Kind: fieldval.KindTime},
	{Name: "address", Kind: fieldval.KindMap, Composite: true},
	{Name: "diagnosis", Kind: fieldval.KindList, Composite: true},
	{Name: "medications", Kind: fieldval.KindList, Composite: true},
	{Name: "allergies", Kind: fieldval.KindList, Composite: true},
	{Name: "notes", Kind: fieldval.KindString},
	{Name: "insuranceDetails", Kind: fieldval.KindMap, Composite: true},
	{Name: "tags", Kind: fieldval.KindList, Composite: true},
	{Name: "createdAt", Kind: fieldval.KindTime},
}

var messageSchema = Schema{
	{Name: "id", Kind: fieldval.KindID},
	{Name: "sender", Kind: fieldval.KindString},
	{Name: "subject", Kind: fieldval.KindString},
	{Name: "body", Kind: fieldval.KindString},
	{Name: "attachments", Kind: fieldval.KindList, Composite: true},
	{Name: "createdAt", Kind: fieldval.KindTime},
}

// SchemaFor returns the field schema of an entity kind, or false for unknown
// kinds.
func SchemaFor(entityKind string) (Schema, bool) {
	switch entityKind {
	case EntityKindPatient:
		return patientSchema, true
	case EntityKindMessage:
		return messageSchema, true
	default:
		return nil, false
	}
}

// Patient is the plaintext in-memory patient record.
type Patient struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	SSN              string
	DateOfBirth      time.Time
	Address          map[string]string
	Diagnosis        []string
	Medications      []string
	Allergies        []string
	Notes            string
	InsuranceDetails map[string]string
	Tags             []string
	CreatedAt        time.Time
}

// Fields converts the record to its field-value map, the form consumed by the
// codec and the role projector. Unset scalars and nil composites become null
// and are omitted from storage.
func (p *Patient) Fields() map[string]fieldval.Value {
	fields := map[string]fieldval.Value{
		"id":               idOrNull(p.ID),
		"firstName":        stringOrNull(p.FirstName),
		"lastName":         stringOrNull(p.LastName),
		"email":            stringOrNull(p.Email),
		"phone":            stringOrNull(p.Phone),
		"ssn":              stringOrNull(p.SSN),
		"dateOfBirth":      timeOrNull(p.DateOfBirth),
		"address":          stringMapOrNull(p.Address),
		"diagnosis":        stringListOrNull(p.Diagnosis),
		"medications":      stringListOrNull(p.Medications),
		"allergies":        stringListOrNull(p.Allergies),
		"notes":            stringOrNull(p.Notes),
		"insuranceDetails": stringMapOrNull(p.InsuranceDetails),
		"tags":             stringListOrNull(p.Tags),
		"createdAt":        timeOrNull(p.CreatedAt),
	}
	return fields
}

// PatientFromFields assembles a patient record from a decrypted field-value
// map. Missing fields keep their zero value.
func PatientFromFields(fields map[string]fieldval.Value) *Patient {
	return &Patient{
		ID:               fields["id"].Str(),
		FirstName:        fields["firstName"].Str(),
		LastName:         fields["lastName"].Str(),
		Email:            fields["email"].Str(),
		Phone:            fields["phone"].Str(),
		SSN:              fields["ssn"].Str(),
		DateOfBirth:      fields["dateOfBirth"].TimeVal(),
		Address:          fields["address"].StringEntries(),
		Diagnosis:        fields["diagnosis"].Strings(),
		Medications:      fields["medications"].Strings(),
		Allergies:        fields["allergies"].Strings(),
		Notes:            fields["notes"].Str(),
		InsuranceDetails: fields["insuranceDetails"].StringEntries(),
		Tags:             fields["tags"].Strings(),
		CreatedAt:        fields["createdAt"].TimeVal(),
	}
}

// Message is the plaintext in-memory message record.
type Message struct {
	ID          string
	Sender      string
	Subject     string
	Body        string
	Attachments []string
	CreatedAt   time.Time
}

// Fields converts the record to its field-value map.
func (m *Message) Fields() map[string]fieldval.Value {
	return map[string]fieldval.Value{
		"id":          idOrNull(m.ID),
		"sender":      stringOrNull(m.Sender),
		"subject":     stringOrNull(m.Subject),
		"body":        stringOrNull(m.Body),
		"attachments": stringListOrNull(m.Attachments),
		"createdAt":   timeOrNull(m.CreatedAt),
	}
}

// MessageFromFields assembles a message record from a decrypted field-value map.
func MessageFromFields(fields map[string]fieldval.Value) *Message {
	return &Message{
		ID:          fields["id"].Str(),
		Sender:      fields["sender"].Str(),
		Subject:     fields["subject"].Str(),
		Body:        fields["body"].Str(),
		Attachments: fields["attachments"].Strings(),
		CreatedAt:   fields["createdAt"].TimeVal(),
	}
}

func idOrNull(s string) fieldval.Value {
	if s == "" {
		return fieldval.Null()
	}
	return fieldval.ID(s)
}

func stringOrNull(s string) fieldval.Value {
	if s == "" {
		return fieldval.Null()
	}
	return fieldval.String(s)
}

func timeOrNull(t time.Time) fieldval.Value {
	if t.IsZero() {
		return fieldval.Null()
	}
	return fieldval.Time(t)
}

func stringListOrNull(items []string) fieldval.Value {
	if items == nil {
		return fieldval.Null()
	}
	return fieldval.StringList(items...)
}

func stringMapOrNull(entries map[string]string) fieldval.Value {
	if entries == nil {
		return fieldval.Null()
	}
	return fieldval.StringMap(entries)
}
