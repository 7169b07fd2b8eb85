package mocks

import "github.com/stretchr/testify/mock"

// MockKVStore is a mock implementation of the store.KVStore interface
type MockKVStore struct {
	mock.Mock
}

func (m *MockKVStore) GetBlob(key string) ([]byte, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockKVStore) SetBlob(key string, data []byte) error {
	args := m.Called(key, data)
	return args.Error(0)
}
