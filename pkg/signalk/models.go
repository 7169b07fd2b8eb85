package signalk

import (
	"encoding/json"
	"fmt"
)

// RequestState is the lifecycle state of a device access request on the server.
type RequestState string

const (
	StatePending   RequestState = "PENDING"
	StateCompleted RequestState = "COMPLETED"
)

// UnmarshalJSON rejects states other than PENDING and COMPLETED.
func (s *RequestState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch RequestState(raw) {
	case StatePending, StateCompleted:
		*s = RequestState(raw)
		return nil
	default:
		return fmt.Errorf("unknown access request state %q", raw)
	}
}

// Permission is the server's decision on an access request.
type Permission string

const (
	PermissionApproved Permission = "APPROVED"
	PermissionDenied   Permission = "DENIED"
)

// UnmarshalJSON rejects permissions other than APPROVED and DENIED.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Permission(raw) {
	case PermissionApproved, PermissionDenied:
		*p = Permission(raw)
		return nil
	default:
		return fmt.Errorf("unknown permission %q", raw)
	}
}

// DeviceAccessRequest is submitted to ask the server for a device token.
type DeviceAccessRequest struct {
	ClientID    string `json:"clientId"`
	Description string `json:"description"`
}

// DeviceAccessResponse is returned by the access request, status polling and
// token validation endpoints.
type DeviceAccessResponse struct {
	State         RequestState   `json:"state"`
	RequestID     string         `json:"requestId"`
	StatusCode    int            `json:"statusCode"`
	Message       string         `json:"message,omitempty"`
	AccessRequest *AccessRequest `json:"accessRequest,omitempty"`
	Href          string         `json:"href"`
	IP            string         `json:"ip"`
}

// AccessRequest carries the outcome of a completed request.
type AccessRequest struct {
	Permission     Permission `json:"permission"`
	Token          string     `json:"token,omitempty"`
	ExpirationTime string     `json:"expirationTime,omitempty"`
}
