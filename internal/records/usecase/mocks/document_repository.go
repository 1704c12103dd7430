// Package mocks provides mock implementations for testing record use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	recordsDomain "github.com/allisson/phivault/internal/records/domain"
)

// MockDocumentRepository is a mock implementation of DocumentRepository for testing.
type MockDocumentRepository struct {
	mock.Mock
}

// Put mocks the Put method of DocumentRepository.
func (m *MockDocumentRepository) Put(ctx context.Context, doc *recordsDomain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// Get mocks the Get method of DocumentRepository.
func (m *MockDocumentRepository) Get(
	ctx context.Context,
	entityKind, id string,
) (*recordsDomain.Document, error) {
	args := m.Called(ctx, entityKind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordsDomain.Document), args.Error(1)
}

// FindByField mocks the FindByField method of DocumentRepository.
func (m *MockDocumentRepository) FindByField(
	ctx context.Context,
	entityKind, fieldName, storageValue string,
) ([]*recordsDomain.Document, error) {
	args := m.Called(ctx, entityKind, fieldName, storageValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recordsDomain.Document), args.Error(1)
}
