// Package mocks provides mock implementations for testing key vault use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// MockDataKeyRepository is a mock implementation of DataKeyRepository for testing.
type MockDataKeyRepository struct {
	mock.Mock
}

// Create mocks the Create method of DataKeyRepository.
func (m *MockDataKeyRepository) Create(ctx context.Context, dataKey *keyvaultDomain.DataKey) error {
	args := m.Called(ctx, dataKey)
	return args.Error(0)
}

// GetByAltName mocks the GetByAltName method of DataKeyRepository.
func (m *MockDataKeyRepository) GetByAltName(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	args := m.Called(ctx, altName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyvaultDomain.DataKey), args.Error(1)
}
