// Package mocks provides testify mocks for the auth use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	userDomain "github.com/allisson/cedms/internal/user/domain"
)

// MockAuthUseCase is a mock implementation of usecase.AuthUseCase.
type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) RequestRegistration(
	ctx context.Context,
	input authDomain.RegistrationInput,
) (*authDomain.Challenge, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Challenge), args.Error(1)
}

func (m *MockAuthUseCase) VerifyRegistration(ctx context.Context, email, code string) (*authDomain.Session, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *MockAuthUseCase) RequestLogin(ctx context.Context, username, password string) (*authDomain.Challenge, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Challenge), args.Error(1)
}

func (m *MockAuthUseCase) VerifyLogin(ctx context.Context, email, code string) (*authDomain.Session, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *MockAuthUseCase) RequestPasswordReset(ctx context.Context, identifier string) (*authDomain.Challenge, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Challenge), args.Error(1)
}

func (m *MockAuthUseCase) VerifyResetOTP(ctx context.Context, identifier, code string) error {
	args := m.Called(ctx, identifier, code)
	return args.Error(0)
}

func (m *MockAuthUseCase) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	args := m.Called(ctx, identifier, code, newPassword)
	return args.Error(0)
}

func (m *MockAuthUseCase) CurrentUser(
	ctx context.Context,
	principal *authDomain.Principal,
) (*userDomain.User, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *MockAuthUseCase) Authenticate(ctx context.Context, token string) (*authDomain.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Principal), args.Error(1)
}
