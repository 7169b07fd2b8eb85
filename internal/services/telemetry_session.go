package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/internal/constants"
	"github.com/benmeehan/telemetry-agent/pkg/identity"
	"github.com/benmeehan/telemetry-agent/pkg/jwt"
	"github.com/benmeehan/telemetry-agent/pkg/signalk"
	"github.com/benmeehan/telemetry-agent/pkg/store"
)

// StreamDialer opens the Signal K delta stream.
type StreamDialer interface {
	Connect(ctx context.Context, root, token string) (*signalk.Stream, error)
}

// SessionConfig configures a TelemetrySession.
type SessionConfig struct {
	// Auth is the template for device authorization; the client identity is
	// filled in from the device info.
	Auth             signalk.Config
	MinServerVersion string
	StreamEnabled    bool
	ReconnectDelay   time.Duration
}

// TelemetrySession authorizes the device against a Signal K server and keeps
// the delta stream connected, registering it as a consumer output.
type TelemetrySession struct {
	cfg        SessionConfig
	deviceInfo identity.DeviceInfoInterface
	transport  signalk.HTTPTransport
	store      store.KVStore
	dialer     StreamDialer
	consumer   *ConsumerService
	authOpts   []signalk.AuthOption
	logger     zerolog.Logger

	token string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTelemetrySession initializes a new TelemetrySession.
func NewTelemetrySession(cfg SessionConfig, deviceInfo identity.DeviceInfoInterface, transport signalk.HTTPTransport,
	kv store.KVStore, dialer StreamDialer, consumer *ConsumerService, logger zerolog.Logger, authOpts ...signalk.AuthOption) *TelemetrySession {

	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = signalk.DefaultPollInterval
	}
	return &TelemetrySession{
		cfg:        cfg,
		deviceInfo: deviceInfo,
		transport:  transport,
		store:      kv,
		dialer:     dialer,
		consumer:   consumer,
		authOpts:   authOpts,
		logger:     logger,
	}
}

// Bootstrap resolves the device identity, checks the server version when a
// minimum is configured and runs device authorization. It blocks until the
// server operator decides or ctx is done. Any error is fatal to the session.
func (s *TelemetrySession) Bootstrap(ctx context.Context) error {
	if err := s.deviceInfo.LoadDeviceInfo(); err != nil {
		return fmt.Errorf("failed to load device info: %w", err)
	}

	if s.cfg.MinServerVersion != "" {
		d, err := signalk.Discover(ctx, s.transport, s.cfg.Auth.ServerRoot)
		if err != nil {
			return err
		}
		if err := d.CheckVersion(s.cfg.MinServerVersion); err != nil {
			return err
		}
		s.logger.Info().Str("server", d.Server.ID).Str("server_version", d.Server.Version).
			Str("api_version", d.Endpoints["v1"].Version).Msg("Signal K server discovered")
	}

	authCfg := s.cfg.Auth
	authCfg.ClientID = s.deviceInfo.GetClientID()
	authCfg.Description = s.deviceInfo.GetDescription()

	client := signalk.NewAuthClient(authCfg, s.transport, s.store, s.logger, s.authOpts...)
	token, err := client.Authorize(ctx)
	if err != nil {
		return err
	}

	s.token = token
	s.logger.Info().Str("client_id", authCfg.ClientID).Msg("Device authorized")

	if exp, ok, err := jwt.Expiry(token); err == nil && ok {
		if jwt.IsExpired(token, time.Now()) {
			s.logger.Warn().Time("expired_at", exp).Msg("Access token has expired, enable validate_token to renew it")
		} else {
			s.logger.Info().Time("expires_at", exp).Msg("Access token expiry")
		}
	}
	return nil
}

// Token returns the access token obtained by Bootstrap.
func (s *TelemetrySession) Token() string {
	return s.token
}

// Start keeps the delta stream connected in a separate goroutine.
func (s *TelemetrySession) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("TelemetrySession is already running")
		return errors.New("telemetry session is already running")
	}
	if s.token == "" {
		return errors.New("telemetry session is not authorized")
	}
	if !s.cfg.StreamEnabled {
		s.logger.Info().Msg("Signal K stream disabled")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStreamLoop()
	}()

	s.logger.Info().Msg("TelemetrySession started successfully")
	return nil
}

// Stop closes the stream and waits for the loop to exit.
func (s *TelemetrySession) Stop() error {
	if s.ctx == nil {
		if !s.cfg.StreamEnabled {
			return nil
		}
		s.logger.Warn().Msg("TelemetrySession is not running")
		return errors.New("telemetry session is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("TelemetrySession stopped successfully")
	return nil
}

func (s *TelemetrySession) runStreamLoop() {
	for {
		stream, err := s.dialer.Connect(s.ctx, s.cfg.Auth.ServerRoot, s.token)
		if err != nil {
			s.logger.Error().Err(err).Dur("retry_in", s.cfg.ReconnectDelay).Msg("Failed to connect Signal K stream")
		} else {
			s.serve(stream)
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// serve forwards readings to stream until it drops or the session stops.
func (s *TelemetrySession) serve(stream *signalk.Stream) {
	output := NewSignalKOutput(stream, constants.SourceLabel)
	s.consumer.AddOutput(output)
	defer s.consumer.RemoveOutput(output.Name())

	select {
	case <-stream.Done():
		s.logger.Warn().Err(stream.Err()).Msg("Signal K stream closed by server")
	case <-s.ctx.Done():
	}

	if err := stream.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Error closing Signal K stream")
	}
}
