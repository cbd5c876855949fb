// Package mocks provides testify mocks for the document use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
	authDomain "github.com/allisson/cedms/internal/auth/domain"
	documentDomain "github.com/allisson/cedms/internal/document/domain"
)

// MockDocumentUseCase is a mock implementation of usecase.DocumentUseCase.
type MockDocumentUseCase struct {
	mock.Mock
}

func (m *MockDocumentUseCase) Upload(
	ctx context.Context,
	principal *authDomain.Principal,
	input documentDomain.UploadInput,
) (*documentDomain.Document, error) {
	args := m.Called(ctx, principal, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) List(
	ctx context.Context,
	principal *authDomain.Principal,
	filter documentDomain.Filter,
) ([]*documentDomain.Document, error) {
	args := m.Called(ctx, principal, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) SetStatus(
	ctx context.Context,
	principal *authDomain.Principal,
	id string,
	status documentDomain.Status,
) (*documentDomain.Document, error) {
	args := m.Called(ctx, principal, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) Download(
	ctx context.Context,
	principal *authDomain.Principal,
	id string,
) (*documentDomain.Download, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Download), args.Error(1)
}

func (m *MockDocumentUseCase) Delete(ctx context.Context, principal *authDomain.Principal, id string) error {
	args := m.Called(ctx, principal, id)
	return args.Error(0)
}

func (m *MockDocumentUseCase) DeletedHistory(
	ctx context.Context,
	principal *authDomain.Principal,
) ([]auditDomain.DeletionRecord, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]auditDomain.DeletionRecord), args.Error(1)
}
