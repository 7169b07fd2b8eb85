package signalk

import (
	"errors"
	"fmt"
)

// Stage names the step of device authorization that failed.
type Stage string

const (
	StageValidate Stage = "token validation"
	StageSubmit   Stage = "request submission"
	StagePoll     Stage = "status polling"
	StageDiscover Stage = "server discovery"
)

var (
	// ErrNotSupported is returned when the server answers 501 to device authorization.
	ErrNotSupported = errors.New("server does not support device authorization")
	// ErrUnexpectedStatus is returned for any HTTP status the protocol does not define.
	ErrUnexpectedStatus = errors.New("server returned an unrecognized status")
	// ErrMissingAccessRequest is returned for a COMPLETED response without an
	// accessRequest section. Servers produce it when a client resubmits a
	// request with the same clientId instead of polling the pending one.
	ErrMissingAccessRequest = errors.New("access request completed without accessRequest section")
	// ErrMissingPermission is returned for a completed accessRequest without a permission.
	ErrMissingPermission = errors.New("access request completed without permission")
	// ErrMissingToken is returned when a request is approved but carries no token.
	ErrMissingToken = errors.New("access request approved without a token")
	// ErrMissingHref is returned when there is no href to poll.
	ErrMissingHref = errors.New("no access request href to poll")
)

// TransportError wraps a failure of the HTTP transport itself.
type TransportError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: transport error calling %s: %v", e.Stage, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports an unexpected status code or a malformed response.
type ProtocolError struct {
	Stage  Stage
	Status int
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed: status %d: %v", e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DeniedError reports an explicit denial by the server operator.
type DeniedError struct {
	RequestID string
	Message   string
}

func (e *DeniedError) Error() string {
	msg := fmt.Sprintf("access request %s denied by the server", e.RequestID)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
