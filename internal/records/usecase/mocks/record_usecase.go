package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// MockRecordUseCase is a mock implementation of RecordUseCase for testing.
type MockRecordUseCase struct {
	mock.Mock
}

// SavePatient mocks the SavePatient method of RecordUseCase.
func (m *MockRecordUseCase) SavePatient(ctx context.Context, patient *recordsDomain.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

// GetPatient mocks the GetPatient method of RecordUseCase.
func (m *MockRecordUseCase) GetPatient(
	ctx context.Context,
	id string,
) (*recordsDomain.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordsDomain.Patient), args.Error(1)
}

// FindPatientsByEmail mocks the FindPatientsByEmail method of RecordUseCase.
func (m *MockRecordUseCase) FindPatientsByEmail(
	ctx context.Context,
	email string,
) ([]*recordsDomain.Patient, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recordsDomain.Patient), args.Error(1)
}

// FindPatientsBySSN mocks the FindPatientsBySSN method of RecordUseCase.
func (m *MockRecordUseCase) FindPatientsBySSN(
	ctx context.Context,
	ssn string,
) ([]*recordsDomain.Patient, error) {
	args := m.Called(ctx, ssn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recordsDomain.Patient), args.Error(1)
}

// ViewPatient mocks the ViewPatient method of RecordUseCase.
func (m *MockRecordUseCase) ViewPatient(
	ctx context.Context,
	id string,
	roles []string,
) (map[string]any, error) {
	args := m.Called(ctx, id, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// SaveMessage mocks the SaveMessage method of RecordUseCase.
func (m *MockRecordUseCase) SaveMessage(ctx context.Context, message *recordsDomain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// GetMessage mocks the GetMessage method of RecordUseCase.
func (m *MockRecordUseCase) GetMessage(
	ctx context.Context,
	id string,
) (*recordsDomain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordsDomain.Message), args.Error(1)
}
