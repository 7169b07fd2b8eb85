// Package signalk implements the client side of a Signal K server: device
// access requests, token validation, server discovery and the delta stream.
package signalk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/pkg/store"
)

const (
	// TokenKey is the blob key of the persisted access token.
	TokenKey = "token"
	// RequestHrefKey is the blob key of the last accepted access request href.
	RequestHrefKey = "request_href"

	// DefaultPollInterval is the fixed wait between two status polls.
	DefaultPollInterval = 5 * time.Second

	accessRequestsPath = "/signalk/v1/access/requests"
	validatePath       = "/signalk/v1/auth/validate"
)

// AuthState is the position of an AuthClient in the authorization flow.
type AuthState int32

const (
	AuthNoToken AuthState = iota
	AuthRequesting
	AuthPending
	AuthApproved
	AuthDenied
	AuthFatal
)

func (s AuthState) String() string {
	switch s {
	case AuthNoToken:
		return "no-token"
	case AuthRequesting:
		return "requesting"
	case AuthPending:
		return "pending"
	case AuthApproved:
		return "approved"
	case AuthDenied:
		return "denied"
	case AuthFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Config holds the parameters of a device authorization.
type Config struct {
	ServerRoot    string
	ClientID      string
	Description   string
	ValidateToken bool
	PollInterval  time.Duration
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// AuthOption customizes an AuthClient.
type AuthOption func(*AuthClient)

// WithSleeper replaces the wait used between status polls.
func WithSleeper(s Sleeper) AuthOption {
	return func(c *AuthClient) { c.sleep = s }
}

// AuthClient obtains a bearer token from a Signal K server through the
// device access request flow. It is used by a single caller at a time.
type AuthClient struct {
	cfg       Config
	transport HTTPTransport
	store     store.KVStore
	logger    zerolog.Logger
	sleep     Sleeper
	state     atomic.Int32
}

// NewAuthClient returns a client for the server at cfg.ServerRoot.
func NewAuthClient(cfg Config, transport HTTPTransport, kv store.KVStore, logger zerolog.Logger, opts ...AuthOption) *AuthClient {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	c := &AuthClient{
		cfg:       cfg,
		transport: transport,
		store:     kv,
		logger:    logger.With().Str("component", "signalk-auth").Logger(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports where the client is in the flow.
func (c *AuthClient) State() AuthState {
	return AuthState(c.state.Load())
}

func (c *AuthClient) setState(s AuthState) {
	c.state.Store(int32(s))
	c.logger.Debug().Stringer("state", s).Msg("Authorization state changed")
}

// Authorize returns a usable access token. A persisted token is reused,
// after validation when enabled; otherwise a new access request is submitted
// and polled until the server operator decides on it. Polling has no attempt
// limit and stops early only when ctx is done.
func (c *AuthClient) Authorize(ctx context.Context) (string, error) {
	c.setState(AuthNoToken)

	token := c.loadToken()
	if token != "" {
		if !c.cfg.ValidateToken {
			c.logger.Info().Msg("Using persisted token without validation")
			c.setState(AuthApproved)
			return token, nil
		}

		valid, err := c.validate(ctx, token)
		if err != nil {
			c.setState(AuthFatal)
			return "", err
		}
		if valid {
			c.logger.Info().Msg("Persisted token validated")
			c.setState(AuthApproved)
			return token, nil
		}
		c.logger.Warn().Msg("Persisted token is no longer valid, requesting a new one")
	} else {
		c.logger.Info().Msg("No token available, requesting a new one")
	}

	token, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}

	if err := c.store.SetBlob(TokenKey, []byte(token)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist token, it stays usable for this session")
	} else {
		c.logger.Info().Msg("Token persisted")
	}

	c.setState(AuthApproved)
	return token, nil
}

func (c *AuthClient) loadToken() string {
	data, err := c.store.GetBlob(TokenKey)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to read persisted token")
		return ""
	}
	return string(data)
}

// validate reports whether the server still approves token. Transport
// failures are returned; protocol failures count as a rejection.
func (c *AuthClient) validate(ctx context.Context, token string) (bool, error) {
	url := httpURL(c.cfg.ServerRoot, validatePath)
	headers := map[string]string{"Authorization": "Bearer " + token}

	c.logger.Info().Str("url", url).Msg("-> POST")
	resp, err := c.transport.Post(ctx, url, headers, nil)
	if err != nil {
		return false, &TransportError{Stage: StageValidate, URL: url, Err: err}
	}
	c.logger.Info().Int("status", resp.Status).Msg("<- POST")

	var res DeviceAccessResponse
	switch resp.Status {
	case http.StatusOK, http.StatusNotFound:
		if err := json.Unmarshal([]byte(resp.Body), &res); err != nil {
			c.logger.Warn().Err(err).Str("body", resp.Body).Msg("Malformed validation response")
			return false, nil
		}
	case http.StatusNotImplemented:
		c.logger.Warn().Err(ErrNotSupported).Msg("Token validation unavailable")
		return false, nil
	default:
		c.logger.Warn().Int("status", resp.Status).Err(ErrUnexpectedStatus).Msg("Token validation failed")
		return false, nil
	}

	if res.AccessRequest == nil {
		c.logger.Warn().Err(ErrMissingAccessRequest).Msg("Token validation failed")
		return false, nil
	}
	return res.AccessRequest.Permission == PermissionApproved, nil
}

// acquire submits an access request and polls it to completion.
func (c *AuthClient) acquire(ctx context.Context) (string, error) {
	c.setState(AuthRequesting)

	href, err := c.submit(ctx)
	if err != nil {
		c.setState(AuthFatal)
		return "", err
	}

	c.setState(AuthPending)
	for {
		res, err := c.poll(ctx, href)
		if err != nil {
			c.setState(AuthFatal)
			return "", err
		}

		if res.State == StatePending {
			c.logger.Info().Str("request_id", res.RequestID).Dur("retry_in", c.cfg.PollInterval).
				Msg("Access request pending approval")
			if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
				c.setState(AuthFatal)
				return "", err
			}
			continue
		}

		return c.complete(res)
	}
}

func (c *AuthClient) complete(res *DeviceAccessResponse) (string, error) {
	if res.AccessRequest == nil {
		c.setState(AuthFatal)
		return "", &ProtocolError{Stage: StagePoll, Err: fmt.Errorf("%w (request %s)", ErrMissingAccessRequest, res.RequestID)}
	}

	switch res.AccessRequest.Permission {
	case PermissionApproved:
		if res.AccessRequest.Token == "" {
			c.setState(AuthFatal)
			return "", &ProtocolError{Stage: StagePoll, Err: ErrMissingToken}
		}
		c.logger.Info().Str("request_id", res.RequestID).Str("expires", res.AccessRequest.ExpirationTime).
			Msg("Access request approved")
		return res.AccessRequest.Token, nil
	case PermissionDenied:
		c.setState(AuthDenied)
		return "", &DeniedError{RequestID: res.RequestID, Message: res.Message}
	default:
		c.setState(AuthFatal)
		return "", &ProtocolError{Stage: StagePoll, Err: fmt.Errorf("%w (request %s)", ErrMissingPermission, res.RequestID)}
	}
}

// submit posts the access request and returns the href to poll.
func (c *AuthClient) submit(ctx context.Context) (string, error) {
	url := httpURL(c.cfg.ServerRoot, accessRequestsPath)
	body, err := json.Marshal(DeviceAccessRequest{ClientID: c.cfg.ClientID, Description: c.cfg.Description})
	if err != nil {
		return "", fmt.Errorf("failed to encode access request: %w", err)
	}

	c.logger.Info().Str("url", url).Str("client_id", c.cfg.ClientID).Msg("-> POST")
	resp, err := c.transport.Post(ctx, url, nil, body)
	if err != nil {
		return "", &TransportError{Stage: StageSubmit, URL: url, Err: err}
	}
	c.logger.Info().Int("status", resp.Status).Msg("<- POST")

	var res DeviceAccessResponse
	switch resp.Status {
	case http.StatusAccepted, http.StatusBadRequest:
		if err := json.Unmarshal([]byte(resp.Body), &res); err != nil {
			return "", &ProtocolError{Stage: StageSubmit, Status: resp.Status, Err: err}
		}
	case http.StatusNotFound:
		// Already pending on the server; the body may still name the request.
		if err := json.Unmarshal([]byte(resp.Body), &res); err != nil {
			c.logger.Debug().Err(err).Msg("No access request in 404 body")
		}
	case http.StatusNotImplemented:
		return "", &ProtocolError{Stage: StageSubmit, Status: resp.Status, Err: ErrNotSupported}
	default:
		return "", &ProtocolError{Stage: StageSubmit, Status: resp.Status, Err: ErrUnexpectedStatus}
	}

	href := res.Href
	if href == "" {
		href = c.lastHref()
	}
	if href == "" {
		return "", &ProtocolError{Stage: StageSubmit, Status: resp.Status, Err: ErrMissingHref}
	}

	if href != res.Href {
		c.logger.Info().Str("href", href).Msg("Resuming previous access request")
	} else if err := c.store.SetBlob(RequestHrefKey, []byte(href)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist access request href")
	}
	return href, nil
}

func (c *AuthClient) lastHref() string {
	data, err := c.store.GetBlob(RequestHrefKey)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to read persisted access request href")
		return ""
	}
	return string(data)
}

// poll fetches the state of the access request at href. A 404 body is read
// like a 200 one; an empty 404 means the request is still pending.
func (c *AuthClient) poll(ctx context.Context, href string) (*DeviceAccessResponse, error) {
	url := httpURL(c.cfg.ServerRoot, href)

	c.logger.Debug().Str("url", url).Msg("-> GET")
	resp, err := c.transport.Get(ctx, url)
	if err != nil {
		return nil, &TransportError{Stage: StagePoll, URL: url, Err: err}
	}
	c.logger.Debug().Int("status", resp.Status).Msg("<- GET")

	switch resp.Status {
	case http.StatusOK, http.StatusNotFound:
		if resp.Status == http.StatusNotFound && strings.TrimSpace(resp.Body) == "" {
			return &DeviceAccessResponse{State: StatePending, Href: href}, nil
		}
		var res DeviceAccessResponse
		if err := json.Unmarshal([]byte(resp.Body), &res); err != nil {
			return nil, &ProtocolError{Stage: StagePoll, Status: resp.Status, Err: err}
		}
		return &res, nil
	case http.StatusNotImplemented:
		return nil, &ProtocolError{Stage: StagePoll, Status: resp.Status, Err: ErrNotSupported}
	default:
		return nil, &ProtocolError{Stage: StagePoll, Status: resp.Status, Err: ErrUnexpectedStatus}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
