package mqtt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeFiles struct {
	mock.Mock
}

func (f *fakeFiles) IsFileExists(string) (bool, error) { return true, nil }
func (f *fakeFiles) ReadYamlFile(string, any) error { return nil }
func (f *fakeFiles) WriteFileRaw(string, []byte) error { return nil }
func (f *fakeFiles) EnsureDir(string) error { return nil }
func (f *fakeFiles) ReadFileRaw(path string) ([]byte, error) {
	args := f.Called(path)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func TestTLSConfig_MissingCertificate(t *testing.T) {
	files := new(fakeFiles)
	files.On("ReadFileRaw", "/etc/agent/ca.pem").Return(nil, errors.New("no such file"))

	s := NewMqttService(files)
	_, err := s.tlsConfig("/etc/agent/ca.pem")
	assert.ErrorContains(t, err, "failed to read CA certificate")
}

func TestTLSConfig_InvalidCertificate(t *testing.T) {
	files := new(fakeFiles)
	files.On("ReadFileRaw", "/etc/agent/ca.pem").Return([]byte("not a pem"), nil)

	s := NewMqttService(files)
	_, err := s.tlsConfig("/etc/agent/ca.pem")
	assert.EqualError(t, err, "failed to append CA certificate")
}

func TestDisconnect_WithoutClient(t *testing.T) {
	s := NewMqttService(new(fakeFiles))
	assert.NotPanics(t, func() { s.Disconnect(250) })
}
