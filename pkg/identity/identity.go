package identity

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/pkg/store"
)

// ClientIDKey is the blob key holding a generated client identifier.
const ClientIDKey = "client_id"

// DeviceInfoInterface defines methods for managing the device identity
// presented to the telemetry server.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	GetClientID() string
	GetDescription() string
}

// DeviceInfo resolves the client identifier used for device authorization.
// A configured identifier wins; otherwise one is generated once and kept in
// the blob store so that restarts keep referring to the same access request.
type DeviceInfo struct {
	configuredID string
	description  string
	clientID     string
	store        store.KVStore
	logger       zerolog.Logger
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(clientID, description string, kv store.KVStore, logger zerolog.Logger) DeviceInfoInterface {
	return &DeviceInfo{
		configuredID: clientID,
		description:  description,
		store:        kv,
		logger:       logger,
	}
}

// LoadDeviceInfo resolves the client identifier. Storage failures are logged;
// the identifier is still usable for the current session.
func (d *DeviceInfo) LoadDeviceInfo() error {
	if d.configuredID != "" {
		d.clientID = d.configuredID
		return nil
	}

	stored, err := d.store.GetBlob(ClientIDKey)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to read persisted client ID")
	}
	if len(stored) > 0 {
		d.clientID = string(stored)
		d.logger.Info().Str("client_id", d.clientID).Msg("Using persisted client ID")
		return nil
	}

	d.clientID = uuid.NewString()
	d.logger.Info().Str("client_id", d.clientID).Msg("Generated new client ID")
	if err := d.store.SetBlob(ClientIDKey, []byte(d.clientID)); err != nil {
		d.logger.Error().Err(err).Msg("Failed to persist client ID")
	}
	return nil
}

// GetClientID returns the resolved client identifier.
func (d *DeviceInfo) GetClientID() string {
	return d.clientID
}

// GetDescription returns the human readable device description shown to the
// server operator when approving access.
func (d *DeviceInfo) GetDescription() string {
	return d.description
}
