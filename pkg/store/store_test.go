package store_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/pkg/encryption"
	"github.com/benmeehan/telemetry-agent/pkg/file"
	"github.com/benmeehan/telemetry-agent/pkg/store"
)

func TestFileStore_MissingKeyIsNil(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir(), file.NewFileService())
	require.NoError(t, err)

	data, err := s.GetBlob("token")
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileStore_OverwritesWholesale(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewFileStore(dir, file.NewFileService())
	require.NoError(t, err)

	require.NoError(t, s.SetBlob("token", []byte("a-much-longer-first-token")))
	require.NoError(t, s.SetBlob("token", []byte("second")))

	// A fresh store over the same directory sees the persisted value.
	reopened, err := store.NewFileStore(dir, file.NewFileService())
	require.NoError(t, err)
	data, err := reopened.GetBlob("token")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir(), file.NewFileService())
	require.NoError(t, err)

	assert.Error(t, s.SetBlob("../token", []byte("x")))
	_, err = s.GetBlob("")
	assert.Error(t, err)
}

func TestEncryptedStore_EncryptsAtRest(t *testing.T) {
	inner := store.NewMemoryStore()
	enc, err := encryption.NewEncryptionManager(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	s := store.NewEncryptedStore(inner, enc)

	require.NoError(t, s.SetBlob("token", []byte("secret-token")))

	raw, err := inner.GetBlob("token")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")

	data, err := s.GetBlob("token")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", string(data))

	missing, err := s.GetBlob("client_id")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

type failingEncryptor struct{}

func (failingEncryptor) Encrypt([]byte) ([]byte, error) { return nil, errors.New("no entropy") }
func (failingEncryptor) Decrypt([]byte) ([]byte, error) { return nil, errors.New("bad key") }

func TestEncryptedStore_PropagatesCipherErrors(t *testing.T) {
	inner := store.NewMemoryStore()
	require.NoError(t, inner.SetBlob("token", []byte("garbage")))
	s := store.NewEncryptedStore(inner, failingEncryptor{})

	assert.Error(t, s.SetBlob("token", []byte("x")))
	_, err := s.GetBlob("token")
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, s.SetBlob("k", data))
	data[0] = 'x'

	got, err := s.GetBlob("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
