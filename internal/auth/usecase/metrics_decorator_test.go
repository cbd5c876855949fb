package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/cedms/internal/auth/domain"
	"github.com/allisson/cedms/internal/auth/usecase"
	usecaseMocks "github.com/allisson/cedms/internal/auth/usecase/mocks"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func expectMetrics(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "auth", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "auth", operation, mock.AnythingOfType("time.Duration"), status).Return().Once()
}

func TestAuthUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("RequestLogin success", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAuthUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAuthUseCaseWithMetrics(mockNext, mockMetrics)

		challenge := &authDomain.Challenge{Email: "a@example.com"}
		mockNext.On("RequestLogin", ctx, "alice", "pw").Return(challenge, nil).Once()
		expectMetrics(mockMetrics, ctx, "login_request", "success")

		res, err := uc.RequestLogin(ctx, "alice", "pw")
		assert.NoError(t, err)
		assert.Equal(t, challenge, res)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("VerifyLogin error", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAuthUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAuthUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("VerifyLogin", ctx, "a@example.com", "000000").Return(nil, errors.New("bad code")).Once()
		expectMetrics(mockMetrics, ctx, "login_verify", "error")

		res, err := uc.VerifyLogin(ctx, "a@example.com", "000000")
		assert.Error(t, err)
		assert.Nil(t, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("ResetPassword success", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAuthUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAuthUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("ResetPassword", ctx, "alice", "123456", "Password1").Return(nil).Once()
		expectMetrics(mockMetrics, ctx, "password_reset", "success")

		assert.NoError(t, uc.ResetPassword(ctx, "alice", "123456", "Password1"))
		mockMetrics.AssertExpectations(t)
	})

	t.Run("CurrentUser not instrumented", func(t *testing.T) {
		mockNext := &usecaseMocks.MockAuthUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewAuthUseCaseWithMetrics(mockNext, mockMetrics)

		principal := &authDomain.Principal{UserID: "u-1"}
		mockNext.On("CurrentUser", ctx, principal).Return(nil, errors.New("x")).Once()

		_, err := uc.CurrentUser(ctx, principal)
		assert.Error(t, err)
		mockMetrics.AssertNotCalled(t, "RecordOperation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
