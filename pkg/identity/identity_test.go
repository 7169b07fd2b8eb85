package identity_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/internal/mocks"
	"github.com/benmeehan/telemetry-agent/pkg/identity"
	"github.com/benmeehan/telemetry-agent/pkg/store"
)

func TestDeviceInfo_ConfiguredIDWins(t *testing.T) {
	mockStore := new(mocks.MockKVStore)

	d := identity.NewDeviceInfo("31337-400432", "Engine room sensors", mockStore, zerolog.Nop())
	require.NoError(t, d.LoadDeviceInfo())

	assert.Equal(t, "31337-400432", d.GetClientID())
	assert.Equal(t, "Engine room sensors", d.GetDescription())
	mockStore.AssertNotCalled(t, "GetBlob", mock.Anything)
}

func TestDeviceInfo_GeneratesAndPersistsID(t *testing.T) {
	kv := store.NewMemoryStore()

	d := identity.NewDeviceInfo("", "", kv, zerolog.Nop())
	require.NoError(t, d.LoadDeviceInfo())

	_, err := uuid.Parse(d.GetClientID())
	assert.NoError(t, err)

	stored, err := kv.GetBlob(identity.ClientIDKey)
	require.NoError(t, err)
	assert.Equal(t, d.GetClientID(), string(stored))

	again := identity.NewDeviceInfo("", "", kv, zerolog.Nop())
	require.NoError(t, again.LoadDeviceInfo())
	assert.Equal(t, d.GetClientID(), again.GetClientID())
}

func TestDeviceInfo_StorageFailureIsNotFatal(t *testing.T) {
	mockStore := new(mocks.MockKVStore)
	mockStore.On("GetBlob", identity.ClientIDKey).Return(nil, errors.New("flash worn out"))
	mockStore.On("SetBlob", identity.ClientIDKey, mock.Anything).Return(errors.New("flash worn out"))

	d := identity.NewDeviceInfo("", "", mockStore, zerolog.Nop())
	require.NoError(t, d.LoadDeviceInfo())
	assert.NotEmpty(t, d.GetClientID())
	mockStore.AssertExpectations(t)
}
