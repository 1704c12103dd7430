// Package usecase implements the application operations over PHI records:
// saving and loading records through the document codec, exact-match search
// over deterministically encrypted fields, and role-scoped views.
package usecase

import (
	"context"

	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// DocumentRepository defines the document-store port consumed by the record
// use case. Implementations persist storage documents as JSON, keyed by
// (entity kind, id).
//
// Available implementations:
//   - PostgreSQLDocumentRepository: JSONB payload column
//   - MySQLDocumentRepository: JSON payload column
type DocumentRepository interface {
	// Put upserts a document by (entity kind, id).
	Put(ctx context.Context, doc *recordsDomain.Document) error

	// Get retrieves a document, returning ErrRecordNotFound when absent.
	Get(ctx context.Context, entityKind, id string) (*recordsDomain.Document, error)

	// FindByField retrieves documents whose stored field equals the given
	// storage value exactly. Deterministic cipher values make this equality
	// search work over encrypted fields.
	FindByField(ctx context.Context, entityKind, fieldName, storageValue string) ([]*recordsDomain.Document, error)
}

// RecordUseCase defines the business operations over PHI records.
type RecordUseCase interface {
	// SavePatient encrypts and persists a patient record. A missing ID is
	// assigned; encryption failures abort the write.
	SavePatient(ctx context.Context, patient *recordsDomain.Patient) error

	// GetPatient loads and decrypts a patient record. Unreadable fields are
	// defaulted, never fatal.
	GetPatient(ctx context.Context, id string) (*recordsDomain.Patient, error)

	// FindPatientsByEmail returns the patients whose email matches exactly.
	FindPatientsByEmail(ctx context.Context, email string) ([]*recordsDomain.Patient, error)

	// FindPatientsBySSN returns the patients whose SSN matches exactly.
	FindPatientsBySSN(ctx context.Context, ssn string) ([]*recordsDomain.Patient, error)

	// ViewPatient loads a patient and projects it down to the fields visible
	// to the caller's roles.
	ViewPatient(ctx context.Context, id string, roles []string) (map[string]any, error)

	// SaveMessage encrypts and persists a message record.
	SaveMessage(ctx context.Context, message *recordsDomain.Message) error

	// GetMessage loads and decrypts a message record.
	GetMessage(ctx context.Context, id string) (*recordsDomain.Message, error)
}
