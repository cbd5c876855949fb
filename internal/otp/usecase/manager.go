// Package usecase manages outstanding OTP challenges.
package usecase

import (
	"sync"
	"time"

	otpDomain "github.com/allisson/cedms/internal/otp/domain"
	otpService "github.com/allisson/cedms/internal/otp/service"
)

// Default challenge parameters.
const (
	DefaultExpiration  = 5 * time.Minute
	DefaultMaxAttempts = 3
)

// Manager issues and verifies challenges held in process memory. Expiry is
// enforced lazily on access.
type Manager interface {
	// Generate returns a fresh six-digit code.
	Generate() (string, error)

	// Issue stores a challenge for key, replacing any previous one.
	Issue(key, code string, payload any) *otpDomain.Challenge

	// Verify checks code against the challenge for key and returns its payload.
	// With persist the challenge survives a successful verification so a
	// later step of the same flow can verify it again.
	Verify(key, code string, persist bool) (any, error)

	// Remaining returns how long the challenge for key stays valid.
	Remaining(key string) (time.Duration, bool)

	// Expiration is the lifetime of new challenges.
	Expiration() time.Duration
}

type manager struct {
	mu          sync.Mutex
	challenges  map[string]*otpDomain.Challenge
	generator   otpService.Generator
	expiration  time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewManager creates a Manager. Non-positive settings fall back to the defaults.
func NewManager(generator otpService.Generator, expiration time.Duration, maxAttempts int) Manager {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &manager{
		challenges:  make(map[string]*otpDomain.Challenge),
		generator:   generator,
		expiration:  expiration,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (m *manager) Generate() (string, error) {
	return m.generator.Generate()
}

func (m *manager) Expiration() time.Duration {
	return m.expiration
}

func (m *manager) Issue(key, code string, payload any) *otpDomain.Challenge {
	now := m.now()
	challenge := &otpDomain.Challenge{
		Key:         key,
		CodeHash:    otpService.HashCode(code),
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.expiration),
		MaxAttempts: m.maxAttempts,
		Payload:     payload,
	}

	m.mu.Lock()
	m.challenges[key] = challenge
	m.mu.Unlock()

	return challenge
}

// Verify checks, in order: presence, expiry, attempt ceiling, code. An expired
// challenge is discarded without consuming an attempt.
func (m *manager) Verify(key, code string, persist bool) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	challenge, ok := m.challenges[key]
	if !ok {
		return nil, otpDomain.ErrNoChallenge
	}

	if challenge.Expired(m.now()) {
		delete(m.challenges, key)
		return nil, otpDomain.ErrExpired
	}

	if challenge.Attempts >= challenge.MaxAttempts {
		delete(m.challenges, key)
		return nil, otpDomain.ErrAttemptsExhausted
	}

	if !otpService.MatchCode(code, challenge.CodeHash) {
		challenge.Attempts++
		return nil, &otpDomain.InvalidCodeError{RemainingAttempts: challenge.Remaining()}
	}

	if !persist {
		delete(m.challenges, key)
	}
	return challenge.Payload, nil
}

func (m *manager) Remaining(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	challenge, ok := m.challenges[key]
	if !ok {
		return 0, false
	}
	now := m.now()
	if challenge.Expired(now) {
		delete(m.challenges, key)
		return 0, false
	}
	return challenge.ExpiresAt.Sub(now), true
}
