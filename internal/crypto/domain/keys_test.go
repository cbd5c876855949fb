package domain

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	Zero(data)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)

	assert.NotPanics(t, func() { Zero(nil) })
}

func TestKeyMaterial(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	require.NoError(t, err)

	km := &KeyMaterial{MasterKey: []byte{9, 9, 9}, PrivateKey: privateKey}
	assert.True(t, km.PublicKey().Equal(&privateKey.PublicKey))

	km.Zero()
	assert.Equal(t, []byte{0, 0, 0}, km.MasterKey)
}
