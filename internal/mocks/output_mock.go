package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/telemetry-agent/pkg/sensor"
)

// MockOutput is a mock implementation of the services.Output interface
type MockOutput struct {
	mock.Mock
}

func (m *MockOutput) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOutput) Write(r sensor.Reading) error {
	args := m.Called(r)
	return args.Error(0)
}
