package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

// mockSender is a mock implementation of Sender for testing.
type mockSender struct {
	mock.Mock
}

func (m *mockSender) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

// mockNotifier is a mock implementation of Notifier for testing.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, nil)), buf
}

func TestSMTPNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	msg := Message{To: "a@example.com", Subject: "Your code", Body: "123456"}

	t.Run("Success_SendsHeaders", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("DialAndSend", mock.MatchedBy(func(msgs []*gomail.Message) bool {
			return len(msgs) == 1 &&
				msgs[0].GetHeader("To")[0] == "a@example.com" &&
				msgs[0].GetHeader("From")[0] == "noreply@example.com" &&
				msgs[0].GetHeader("Subject")[0] == "Your code"
		})).Return(nil)

		n := &SMTPNotifier{sender: sender, from: "noreply@example.com"}
		require.NoError(t, n.Notify(ctx, msg))
		sender.AssertExpectations(t)
	})

	t.Run("Error_SendFails", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("DialAndSend", mock.Anything).Return(errors.New("connection refused"))

		n := &SMTPNotifier{sender: sender, from: "noreply@example.com"}
		err := n.Notify(ctx, msg)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("Error_CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		n := &SMTPNotifier{sender: &mockSender{}, from: "x"}
		assert.ErrorIs(t, n.Notify(ctx, msg), context.Canceled)
	})
}

func TestFallbackNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	msg := Message{To: "a@example.com", Subject: "s", Body: "b"}

	t.Run("Success_PrimaryDelivers", func(t *testing.T) {
		primary, fallback := &mockNotifier{}, &mockNotifier{}
		primary.On("Notify", ctx, msg).Return(nil)
		logger, _ := bufferLogger()

		require.NoError(t, NewFallbackNotifier(primary, fallback, logger).Notify(ctx, msg))
		fallback.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Success_FallbackOnPrimaryFailure", func(t *testing.T) {
		primary, fallback := &mockNotifier{}, &mockNotifier{}
		primary.On("Notify", ctx, msg).Return(errors.New("smtp down"))
		fallback.On("Notify", ctx, msg).Return(nil)
		logger, buf := bufferLogger()

		require.NoError(t, NewFallbackNotifier(primary, fallback, logger).Notify(ctx, msg))
		fallback.AssertExpectations(t)
		assert.Contains(t, buf.String(), "smtp down")
	})
}

func TestNew(t *testing.T) {
	logger, buf := bufferLogger()

	t.Run("Success_LogOnlyWithoutHost", func(t *testing.T) {
		n := New(SMTPConfig{}, logger)
		_, ok := n.(*LogNotifier)
		require.True(t, ok)

		require.NoError(t, n.Notify(context.Background(), Message{To: "a@example.com", Subject: "OTP", Body: "654321"}))
		assert.True(t, strings.Contains(buf.String(), "654321"))
	})

	t.Run("Success_SMTPWithFallback", func(t *testing.T) {
		n := New(SMTPConfig{Host: "smtp.example.com", Port: 587}, logger)
		_, ok := n.(*FallbackNotifier)
		assert.True(t, ok)
	})
}
