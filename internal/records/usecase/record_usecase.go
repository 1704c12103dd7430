package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoService "github.com/allisson/phivault/internal/crypto/service"
	apperrors "github.com/allisson/phivault/internal/errors"
	"github.com/allisson/phivault/internal/fieldval"
	"github.com/allisson/phivault/internal/rbac"
	"github.com/allisson/phivault/internal/records/codec"
	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// recordUseCase implements RecordUseCase. It owns no state of its own; every
// operation is a stateless composition of codec, engine, repository and
// allow-list.
type recordUseCase struct {
	codec        *codec.Codec
	engine       *cryptoService.FieldEngine
	documentRepo DocumentRepository
	allowList    *rbac.AllowList
}

// SavePatient encrypts and persists a patient record.
func (r *recordUseCase) SavePatient(ctx context.Context, patient *recordsDomain.Patient) error {
	now := time.Now().UTC()
	if patient.ID == "" {
		patient.ID = uuid.Must(uuid.NewV7()).String()
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = now
	}

	data, err := r.codec.ToStorage(ctx, recordsDomain.EntityKindPatient, patient.Fields())
	if err != nil {
		return err
	}

	return r.documentRepo.Put(ctx, &recordsDomain.Document{
		ID:         patient.ID,
		EntityKind: recordsDomain.EntityKindPatient,
		Data:       data,
		CreatedAt:  patient.CreatedAt,
		UpdatedAt:  now,
	})
}

// GetPatient loads and decrypts a patient record.
func (r *recordUseCase) GetPatient(ctx context.Context, id string) (*recordsDomain.Patient, error) {
	fields, err := r.getFields(ctx, recordsDomain.EntityKindPatient, id)
	if err != nil {
		return nil, err
	}
	return recordsDomain.PatientFromFields(fields), nil
}

// FindPatientsByEmail returns the patients whose email matches exactly.
func (r *recordUseCase) FindPatientsByEmail(
	ctx context.Context,
	email string,
) ([]*recordsDomain.Patient, error) {
	return r.findPatients(ctx, "email", email)
}

// FindPatientsBySSN returns the patients whose SSN matches exactly.
func (r *recordUseCase) FindPatientsBySSN(
	ctx context.Context,
	ssn string,
) ([]*recordsDomain.Patient, error) {
	return r.findPatients(ctx, "ssn", ssn)
}

// findPatients implements exact-match search over a deterministically
// encrypted field: the probe value is encrypted exactly the way the stored
// values were, then matched byte for byte in the store.
func (r *recordUseCase) findPatients(
	ctx context.Context,
	fieldName, value string,
) ([]*recordsDomain.Patient, error) {
	probe, err := r.engine.Encrypt(ctx, recordsDomain.EntityKindPatient, fieldName, fieldval.String(value))
	if err != nil {
		return nil, err
	}
	probeStr, ok := probe.(string)
	if !ok {
		return nil, fmt.Errorf("%w: search probe for %s did not encode to a string",
			apperrors.ErrInvalidInput, fieldName)
	}

	docs, err := r.documentRepo.FindByField(ctx, recordsDomain.EntityKindPatient, fieldName, probeStr)
	if err != nil {
		return nil, err
	}

	patients := make([]*recordsDomain.Patient, 0, len(docs))
	for _, doc := range docs {
		fields, err := r.codec.FromStorage(ctx, recordsDomain.EntityKindPatient, doc.Data)
		if err != nil {
			return nil, err
		}
		patients = append(patients, recordsDomain.PatientFromFields(fields))
	}
	return patients, nil
}

// ViewPatient loads a patient and projects it to the caller's roles.
func (r *recordUseCase) ViewPatient(
	ctx context.Context,
	id string,
	roles []string,
) (map[string]any, error) {
	fields, err := r.getFields(ctx, recordsDomain.EntityKindPatient, id)
	if err != nil {
		return nil, err
	}
	return r.allowList.Project(fields, roles), nil
}

// SaveMessage encrypts and persists a message record.
func (r *recordUseCase) SaveMessage(ctx context.Context, message *recordsDomain.Message) error {
	now := time.Now().UTC()
	if message.ID == "" {
		message.ID = uuid.Must(uuid.NewV7()).String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}

	data, err := r.codec.ToStorage(ctx, recordsDomain.EntityKindMessage, message.Fields())
	if err != nil {
		return err
	}

	return r.documentRepo.Put(ctx, &recordsDomain.Document{
		ID:         message.ID,
		EntityKind: recordsDomain.EntityKindMessage,
		Data:       data,
		CreatedAt:  message.CreatedAt,
		UpdatedAt:  now,
	})
}

// GetMessage loads and decrypts a message record.
func (r *recordUseCase) GetMessage(ctx context.Context, id string) (*recordsDomain.Message, error) {
	fields, err := r.getFields(ctx, recordsDomain.EntityKindMessage, id)
	if err != nil {
		return nil, err
	}
	return recordsDomain.MessageFromFields(fields), nil
}

// getFields loads one document and decrypts it to a field-value map.
func (r *recordUseCase) getFields(
	ctx context.Context,
	entityKind, id string,
) (map[string]fieldval.Value, error) {
	doc, err := r.documentRepo.Get(ctx, entityKind, id)
	if err != nil {
		return nil, err
	}
	return r.codec.FromStorage(ctx, entityKind, doc.Data)
}

// NewRecordUseCase creates a new record use case instance.
func NewRecordUseCase(
	c *codec.Codec,
	engine *cryptoService.FieldEngine,
	documentRepo DocumentRepository,
	allowList *rbac.AllowList,
) RecordUseCase {
	return &recordUseCase{
		codec:        c,
		engine:       engine,
		documentRepo: documentRepo,
		allowList:    allowList,
	}
}
