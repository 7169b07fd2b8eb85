package encryption_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/pkg/encryption"
)

func TestEncryptionManager_RoundTrip(t *testing.T) {
	m, err := encryption.NewEncryptionManager(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	ciphertext, err := m.Encrypt([]byte("token"))
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "token")

	plaintext, err := m.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "token", string(plaintext))
}

func TestEncryptionManager_RejectsBadInput(t *testing.T) {
	_, err := encryption.NewEncryptionManager([]byte("short"))
	assert.Error(t, err)

	m, err := encryption.NewEncryptionManager(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)

	_, err = m.Decrypt([]byte("tiny"))
	assert.Error(t, err)

	ciphertext, err := m.Encrypt([]byte("token"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff
	_, err = m.Decrypt(ciphertext)
	assert.Error(t, err)
}
