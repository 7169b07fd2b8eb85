package signalk_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/internal/mocks"
	"github.com/benmeehan/telemetry-agent/pkg/signalk"
)

const discoveryBody = `{"endpoints":{"v1":{"version":"1.7.0","signalk-http":"http://sk.local:3000/signalk/v1/api/",` +
	`"signalk-ws":"ws://sk.local:3000/signalk/v1/stream"}},"server":{"id":"signalk-server-node","version":"2.8.0"}}`

func TestDiscover(t *testing.T) {
	transport := new(mocks.MockHTTPTransport)
	transport.On("Get", mock.Anything, "http://sk.local:3000/signalk").Return(respond(200, discoveryBody), nil).Once()

	d, err := signalk.Discover(context.Background(), transport, root)
	require.NoError(t, err)

	assert.Equal(t, "signalk-server-node", d.Server.ID)
	assert.Equal(t, "1.7.0", d.Endpoints["v1"].Version)
	assert.NoError(t, d.CheckVersion(""))
	assert.NoError(t, d.CheckVersion("1.5.0"))
	assert.NoError(t, d.CheckVersion("1.7.0"))
	assert.Error(t, d.CheckVersion("2.0.0"))
	assert.Error(t, d.CheckVersion("not-a-version"))
}

func TestDiscover_WithoutV1(t *testing.T) {
	d := &signalk.Discovery{Endpoints: map[string]signalk.Endpoint{"v2": {Version: "2.0.0"}}}

	var protoErr *signalk.ProtocolError
	assert.ErrorAs(t, d.CheckVersion(""), &protoErr)
}

func TestDiscover_UnexpectedStatus(t *testing.T) {
	transport := new(mocks.MockHTTPTransport)
	transport.On("Get", mock.Anything, mock.Anything).Return(respond(503, ""), nil).Once()

	_, err := signalk.Discover(context.Background(), transport, root)
	assert.ErrorIs(t, err, signalk.ErrUnexpectedStatus)
}
