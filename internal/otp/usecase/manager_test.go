package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	otpDomain "github.com/allisson/cedms/internal/otp/domain"
	otpService "github.com/allisson/cedms/internal/otp/service"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager() (*manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(otpService.NewRandomGenerator(), 5*time.Minute, 3).(*manager)
	m.now = clock.Now
	return m, clock
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(otpService.NewRandomGenerator(), 0, 0).(*manager)
	assert.Equal(t, DefaultExpiration, m.Expiration())
	assert.Equal(t, DefaultMaxAttempts, m.maxAttempts)
}

func TestManager_Verify(t *testing.T) {
	key := otpDomain.Key(otpDomain.PurposeLogin, "a@example.com")

	t.Run("Success_ReturnsPayloadAndConsumes", func(t *testing.T) {
		m, _ := newTestManager()
		m.Issue(key, "123456", "user-1")

		payload, err := m.Verify(key, "123456", false)
		require.NoError(t, err)
		assert.Equal(t, "user-1", payload)

		_, err = m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrNoChallenge)
	})

	t.Run("Success_PersistKeepsChallenge", func(t *testing.T) {
		m, _ := newTestManager()
		m.Issue(key, "123456", nil)

		_, err := m.Verify(key, "123456", true)
		require.NoError(t, err)
		_, err = m.Verify(key, "123456", false)
		require.NoError(t, err)
	})

	t.Run("Success_StoresOnlyHash", func(t *testing.T) {
		m, _ := newTestManager()
		challenge := m.Issue(key, "654321", nil)
		assert.Equal(t, otpService.HashCode("654321"), challenge.CodeHash)
		assert.NotContains(t, string(challenge.CodeHash), "654321")
	})

	t.Run("Success_IssueOverwritesPrevious", func(t *testing.T) {
		m, _ := newTestManager()
		m.Issue(key, "111111", nil)
		m.Issue(key, "222222", nil)

		_, err := m.Verify(key, "111111", false)
		assert.ErrorIs(t, err, otpDomain.ErrInvalidCode)
		_, err = m.Verify(key, "222222", false)
		assert.NoError(t, err)
	})

	t.Run("Error_NoChallenge", func(t *testing.T) {
		m, _ := newTestManager()
		_, err := m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrNoChallenge)
	})

	t.Run("Error_KeysAreNamespaced", func(t *testing.T) {
		m, _ := newTestManager()
		m.Issue(otpDomain.Key(otpDomain.PurposeRegistration, "a@example.com"), "123456", nil)
		_, err := m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrNoChallenge)
	})

	t.Run("Error_ExpiredEvenWithCorrectCode", func(t *testing.T) {
		m, clock := newTestManager()
		m.Issue(key, "123456", nil)
		clock.Advance(5*time.Minute + time.Second)

		_, err := m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrExpired)

		_, err = m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrNoChallenge)
	})

	t.Run("Success_ValidAtExactExpiry", func(t *testing.T) {
		m, clock := newTestManager()
		m.Issue(key, "123456", nil)
		clock.Advance(5 * time.Minute)

		_, err := m.Verify(key, "123456", false)
		assert.NoError(t, err)
	})

	t.Run("Error_AttemptsExhausted", func(t *testing.T) {
		m, _ := newTestManager()
		m.Issue(key, "123456", nil)

		for remaining := 2; remaining >= 0; remaining-- {
			_, err := m.Verify(key, "000000", false)
			var invalid *otpDomain.InvalidCodeError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, remaining, invalid.RemainingAttempts)
		}

		_, err := m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrAttemptsExhausted)

		_, err = m.Verify(key, "123456", false)
		assert.ErrorIs(t, err, otpDomain.ErrNoChallenge)
	})
}

func TestManager_Remaining(t *testing.T) {
	m, clock := newTestManager()
	key := otpDomain.Key(otpDomain.PurposePasswordReset, "u-1")

	_, ok := m.Remaining(key)
	assert.False(t, ok)

	m.Issue(key, "123456", nil)
	clock.Advance(2 * time.Minute)
	left, ok := m.Remaining(key)
	require.True(t, ok)
	assert.Equal(t, 3*time.Minute, left)

	clock.Advance(4 * time.Minute)
	_, ok = m.Remaining(key)
	assert.False(t, ok)
}

func TestManager_ConcurrentVerifySucceedsOnce(t *testing.T) {
	m, _ := newTestManager()
	key := otpDomain.Key(otpDomain.PurposeLogin, "race@example.com")
	m.Issue(key, "123456", nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Verify(key, "123456", false); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}
