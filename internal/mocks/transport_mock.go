package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/telemetry-agent/pkg/signalk"
)

// MockHTTPTransport is a mock implementation of the signalk.HTTPTransport interface
type MockHTTPTransport struct {
	mock.Mock
}

func (m *MockHTTPTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*signalk.Response, error) {
	args := m.Called(ctx, url, headers, body)
	resp, _ := args.Get(0).(*signalk.Response)
	return resp, args.Error(1)
}

func (m *MockHTTPTransport) Get(ctx context.Context, url string) (*signalk.Response, error) {
	args := m.Called(ctx, url)
	resp, _ := args.Get(0).(*signalk.Response)
	return resp, args.Error(1)
}
