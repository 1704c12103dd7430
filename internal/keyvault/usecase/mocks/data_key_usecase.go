package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// MockDataKeyUseCase is a mock implementation of DataKeyUseCase for testing.
type MockDataKeyUseCase struct {
	mock.Mock
}

// GetOrCreate mocks the GetOrCreate method of DataKeyUseCase.
func (m *MockDataKeyUseCase) GetOrCreate(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	args := m.Called(ctx, altName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyvaultDomain.DataKey), args.Error(1)
}

// Get mocks the Get method of DataKeyUseCase.
func (m *MockDataKeyUseCase) Get(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	args := m.Called(ctx, altName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyvaultDomain.DataKey), args.Error(1)
}
