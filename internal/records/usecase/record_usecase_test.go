package usecase_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
	cryptoService "github.com/allisson/phivault/internal/crypto/service"
	cryptoServiceMocks "github.com/allisson/phivault/internal/crypto/service/mocks"
	"github.com/allisson/phivault/internal/fieldval"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
	"github.com/allisson/phivault/internal/policy"
	"github.com/allisson/phivault/internal/rbac"
	"github.com/allisson/phivault/internal/records/codec"
	recordsDomain "github.com/allisson/phivault/internal/records/domain"
	"github.com/allisson/phivault/internal/records/usecase"
	"github.com/allisson/phivault/internal/records/usecase/mocks"
)

type testEnv struct {
	useCase      usecase.RecordUseCase
	documentRepo *mocks.MockDocumentRepository
	codec        *codec.Codec
	engine       *cryptoService.FieldEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	dataKey := &keyvaultDomain.DataKey{
		ID:      uuid.Must(uuid.NewV7()),
		AltName: "hipaa_encryption_key",
		Key:     key,
	}

	keys := &cryptoServiceMocks.MockDataKeyProvider{}
	keys.On("GetOrCreate", mock.Anything, "hipaa_encryption_key").Return(dataKey, nil).Maybe()
	keys.On("Get", mock.Anything, "hipaa_encryption_key").Return(dataKey, nil).Maybe()

	engine := cryptoService.NewFieldEngine(
		cryptoService.FieldEngineConfig{
			KeyAltName:      "hipaa_encryption_key",
			RandomAlgorithm: cryptoDomain.AESGCM,
		},
		policy.Default(),
		keys,
		cryptoService.NewAEADManager(),
		nil,
	)

	c := codec.New(engine, nil)
	documentRepo := &mocks.MockDocumentRepository{}

	return &testEnv{
		useCase:      usecase.NewRecordUseCase(c, engine, documentRepo, rbac.Default()),
		documentRepo: documentRepo,
		codec:        c,
		engine:       engine,
	}
}

func TestRecordUseCase_SavePatient(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns ID and stores encrypted document", func(t *testing.T) {
		env := newTestEnv(t)

		env.documentRepo.On("Put", ctx, mock.MatchedBy(func(doc *recordsDomain.Document) bool {
			email, _ := doc.Data["email"].(string)
			return doc.EntityKind == recordsDomain.EntityKindPatient &&
				doc.ID != "" &&
				doc.Data["id"] == doc.ID &&
				cryptoDomain.IsCipherValue(email)
		})).Return(nil)

		patient := &recordsDomain.Patient{FirstName: "John", Email: "john@example.com"}
		err := env.useCase.SavePatient(ctx, patient)

		require.NoError(t, err)
		assert.NotEmpty(t, patient.ID)
		assert.False(t, patient.CreatedAt.IsZero())
		env.documentRepo.AssertExpectations(t)
	})

	t.Run("Key vault failure aborts the write", func(t *testing.T) {
		keys := &cryptoServiceMocks.MockDataKeyProvider{}
		keys.On("GetOrCreate", mock.Anything, "hipaa_encryption_key").
			Return(nil, keyvaultDomain.ErrKeyUnavailable)

		engine := cryptoService.NewFieldEngine(
			cryptoService.FieldEngineConfig{
				KeyAltName:      "hipaa_encryption_key",
				RandomAlgorithm: cryptoDomain.AESGCM,
			},
			policy.Default(),
			keys,
			cryptoService.NewAEADManager(),
			nil,
		)
		documentRepo := &mocks.MockDocumentRepository{}
		useCase := usecase.NewRecordUseCase(codec.New(engine, nil), engine, documentRepo, rbac.Default())

		err := useCase.SavePatient(ctx, &recordsDomain.Patient{Email: "john@example.com"})

		assert.ErrorIs(t, err, keyvaultDomain.ErrKeyUnavailable)
		documentRepo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})
}

func TestRecordUseCase_GetPatient(t *testing.T) {
	ctx := context.Background()

	t.Run("Round trips through storage", func(t *testing.T) {
		env := newTestEnv(t)
		patient := &recordsDomain.Patient{
			ID:          "patient-1",
			FirstName:   "John",
			SSN:         "123-45-6789",
			Medications: []string{"Lisinopril"},
			CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		}

		data, err := env.codec.ToStorage(ctx, recordsDomain.EntityKindPatient, patient.Fields())
		require.NoError(t, err)

		env.documentRepo.On("Get", ctx, recordsDomain.EntityKindPatient, "patient-1").
			Return(&recordsDomain.Document{
				ID:         "patient-1",
				EntityKind: recordsDomain.EntityKindPatient,
				Data:       data,
			}, nil)

		got, err := env.useCase.GetPatient(ctx, "patient-1")

		require.NoError(t, err)
		assert.Equal(t, patient.SSN, got.SSN)
		assert.Equal(t, patient.Medications, got.Medications)
	})

	t.Run("Missing record propagates not found", func(t *testing.T) {
		env := newTestEnv(t)

		env.documentRepo.On("Get", ctx, recordsDomain.EntityKindPatient, "missing").
			Return(nil, recordsDomain.ErrRecordNotFound)

		got, err := env.useCase.GetPatient(ctx, "missing")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, recordsDomain.ErrRecordNotFound)
	})
}

func TestRecordUseCase_FindPatientsByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Probe matches stored ciphertext exactly", func(t *testing.T) {
		env := newTestEnv(t)
		patient := &recordsDomain.Patient{ID: "patient-1", Email: "john@example.com"}

		data, err := env.codec.ToStorage(ctx, recordsDomain.EntityKindPatient, patient.Fields())
		require.NoError(t, err)

		// Deterministic encryption means the probe equals the stored value.
		probe, err := env.engine.Encrypt(ctx, recordsDomain.EntityKindPatient, "email",
			fieldval.String("john@example.com"))
		require.NoError(t, err)
		assert.Equal(t, data["email"], probe)

		env.documentRepo.On("FindByField", ctx, recordsDomain.EntityKindPatient, "email", probe.(string)).
			Return([]*recordsDomain.Document{{
				ID:         "patient-1",
				EntityKind: recordsDomain.EntityKindPatient,
				Data:       data,
			}}, nil)

		patients, err := env.useCase.FindPatientsByEmail(ctx, "john@example.com")

		require.NoError(t, err)
		require.Len(t, patients, 1)
		assert.Equal(t, "john@example.com", patients[0].Email)
	})

	t.Run("No matches yields empty slice", func(t *testing.T) {
		env := newTestEnv(t)

		env.documentRepo.On("FindByField", ctx, recordsDomain.EntityKindPatient, "email", mock.Anything).
			Return([]*recordsDomain.Document{}, nil)

		patients, err := env.useCase.FindPatientsByEmail(ctx, "nobody@example.com")

		require.NoError(t, err)
		assert.Empty(t, patients)
	})
}

func TestRecordUseCase_FindPatientsBySSN(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	patient := &recordsDomain.Patient{ID: "patient-1", SSN: "123-45-6789"}

	data, err := env.codec.ToStorage(ctx, recordsDomain.EntityKindPatient, patient.Fields())
	require.NoError(t, err)

	env.documentRepo.On("FindByField", ctx, recordsDomain.EntityKindPatient, "ssn", data["ssn"].(string)).
		Return([]*recordsDomain.Document{{
			ID:         "patient-1",
			EntityKind: recordsDomain.EntityKindPatient,
			Data:       data,
		}}, nil)

	patients, err := env.useCase.FindPatientsBySSN(ctx, "123-45-6789")

	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "123-45-6789", patients[0].SSN)
}

func TestRecordUseCase_ViewPatient(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	patient := &recordsDomain.Patient{
		ID:               "patient-1",
		FirstName:        "John",
		SSN:              "123-45-6789",
		Diagnosis:        []string{"Hypertension"},
		Medications:      []string{"Lisinopril"},
		InsuranceDetails: map[string]string{"provider": "Acme"},
	}

	data, err := env.codec.ToStorage(ctx, recordsDomain.EntityKindPatient, patient.Fields())
	require.NoError(t, err)

	env.documentRepo.On("Get", ctx, recordsDomain.EntityKindPatient, "patient-1").
		Return(&recordsDomain.Document{
			ID:         "patient-1",
			EntityKind: recordsDomain.EntityKindPatient,
			Data:       data,
		}, nil)

	t.Run("Doctor sees clinical fields", func(t *testing.T) {
		view, err := env.useCase.ViewPatient(ctx, "patient-1", []string{"doctor"})

		require.NoError(t, err)
		assert.Equal(t, "123-45-6789", view["ssn"])
		assert.Equal(t, []any{"Hypertension"}, view["diagnosis"])
		assert.NotContains(t, view, "insuranceDetails")
	})

	t.Run("Receptionist never sees clinical fields", func(t *testing.T) {
		view, err := env.useCase.ViewPatient(ctx, "patient-1", []string{"receptionist"})

		require.NoError(t, err)
		assert.NotContains(t, view, "ssn")
		assert.NotContains(t, view, "diagnosis")
		assert.NotContains(t, view, "medications")
		assert.Equal(t, map[string]any{"provider": "Acme"}, view["insuranceDetails"])
	})
}

func TestRecordUseCase_Messages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	var stored *recordsDomain.Document
	env.documentRepo.On("Put", ctx, mock.MatchedBy(func(doc *recordsDomain.Document) bool {
		stored = doc
		body, _ := doc.Data["body"].(string)
		return doc.EntityKind == recordsDomain.EntityKindMessage && cryptoDomain.IsCipherValue(body)
	})).Return(nil)

	message := &recordsDomain.Message{
		Sender:      "dr.smith@clinic.example",
		Subject:     "lab results",
		Body:        "all clear",
		Attachments: []string{"results.pdf"},
	}
	require.NoError(t, env.useCase.SaveMessage(ctx, message))
	require.NotNil(t, stored)

	env.documentRepo.On("Get", ctx, recordsDomain.EntityKindMessage, message.ID).
		Return(stored, nil)

	got, err := env.useCase.GetMessage(ctx, message.ID)
	require.NoError(t, err)
	assert.Equal(t, message.Body, got.Body)
	assert.Equal(t, message.Attachments, got.Attachments)
}
