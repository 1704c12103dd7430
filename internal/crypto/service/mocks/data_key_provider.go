// Package mocks provides mock implementations for testing the encryption engine.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
)

// MockDataKeyProvider is a mock implementation of DataKeyProvider for testing.
type MockDataKeyProvider struct {
	mock.Mock
}

// GetOrCreate mocks the GetOrCreate method of DataKeyProvider.
func (m *MockDataKeyProvider) GetOrCreate(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	args := m.Called(ctx, altName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyvaultDomain.DataKey), args.Error(1)
}

// Get mocks the Get method of DataKeyProvider.
func (m *MockDataKeyProvider) Get(
	ctx context.Context,
	altName string,
) (*keyvaultDomain.DataKey, error) {
	args := m.Called(ctx, altName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keyvaultDomain.DataKey), args.Error(1)
}
