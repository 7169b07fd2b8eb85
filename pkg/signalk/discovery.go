package signalk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Masterminds/semver/v3"
)

const discoveryPath = "/signalk"

// Discovery is the document served at /signalk.
type Discovery struct {
	Endpoints map[string]Endpoint `json:"endpoints"`
	Server    ServerInfo          `json:"server"`
}

// Endpoint describes one API version offered by the server.
type Endpoint struct {
	Version     string `json:"version"`
	SignalKHTTP string `json:"signalk-http,omitempty"`
	SignalKWS   string `json:"signalk-ws,omitempty"`
}

// ServerInfo identifies the server implementation.
type ServerInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Discover fetches the discovery document of the server at root.
func Discover(ctx context.Context, transport HTTPTransport, root string) (*Discovery, error) {
	url := httpURL(root, discoveryPath)
	resp, err := transport.Get(ctx, url)
	if err != nil {
		return nil, &TransportError{Stage: StageDiscover, URL: url, Err: err}
	}
	if resp.Status != http.StatusOK {
		return nil, &ProtocolError{Stage: StageDiscover, Status: resp.Status, Err: ErrUnexpectedStatus}
	}

	var d Discovery
	if err := json.Unmarshal([]byte(resp.Body), &d); err != nil {
		return nil, &ProtocolError{Stage: StageDiscover, Status: resp.Status, Err: err}
	}
	return &d, nil
}

// CheckVersion verifies that the server offers the v1 API at version min or
// later. An empty min accepts any server that offers v1.
func (d *Discovery) CheckVersion(min string) error {
	v1, ok := d.Endpoints["v1"]
	if !ok {
		return &ProtocolError{Stage: StageDiscover, Err: fmt.Errorf("server does not offer the v1 API")}
	}
	if min == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return fmt.Errorf("invalid minimum server version %q: %w", min, err)
	}
	version, err := semver.NewVersion(v1.Version)
	if err != nil {
		return &ProtocolError{Stage: StageDiscover, Err: fmt.Errorf("invalid v1 version %q: %w", v1.Version, err)}
	}
	if !constraint.Check(version) {
		return &ProtocolError{Stage: StageDiscover, Err: fmt.Errorf("v1 version %s is older than %s", version, min)}
	}
	return nil
}
