// Package service generates and hashes one-time passcodes.
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// Code bounds. Codes are always six decimal digits.
const (
	MinCode = 100000
	MaxCode = 999999
)

var codeRange = big.NewInt(MaxCode - MinCode + 1)

// Generator produces OTP codes.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator draws codes uniformly from [MinCode, MaxCode] using crypto/rand.
type RandomGenerator struct{}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate returns a six-digit code.
func (g *RandomGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+MinCode), nil
}

// HashCode returns SHA-256 of code.
func HashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}

// MatchCode compares code against a stored hash in constant time.
func MatchCode(code string, hash []byte) bool {
	return subtle.ConstantTimeCompare(HashCode(code), hash) == 1
}
