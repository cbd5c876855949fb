// Package mocks provides testify mocks for the audit use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/cedms/internal/audit/domain"
)

// MockAuditLogUseCase is a mock implementation of usecase.AuditLogUseCase.
type MockAuditLogUseCase struct {
	mock.Mock
}

func (m *MockAuditLogUseCase) List(
	ctx context.Context,
	actor auditDomain.Actor,
	filter auditDomain.Filter,
) (*auditDomain.Page, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Page), args.Error(1)
}

func (m *MockAuditLogUseCase) Verify(
	ctx context.Context,
	actor auditDomain.Actor,
) (auditDomain.IntegrityReport, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(auditDomain.IntegrityReport), args.Error(1)
}

func (m *MockAuditLogUseCase) Clear(ctx context.Context, actor auditDomain.Actor) (*auditDomain.Entry, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Entry), args.Error(1)
}
