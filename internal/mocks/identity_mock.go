package mocks

import "github.com/stretchr/testify/mock"

// MockDeviceInfo is a mock implementation of the DeviceInfoInterface
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDeviceInfo) GetClientID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDeviceInfo) GetDescription() string {
	args := m.Called()
	return args.String(0)
}
