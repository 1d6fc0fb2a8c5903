package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Timeout bounds for EndpointConfig.
const (
	DefaultTimeout = 30 * time.Second
	MinTimeout     = 50 * time.Millisecond
)

// TransportKind selects the transport variant.
type TransportKind string

// Transport kinds
const (
	// TransportWebSocket is the persistent-socket transport.
	TransportWebSocket TransportKind = "websocket"
	// TransportHTTP is the stateless-request transport.
	TransportHTTP TransportKind = "http"
)

// ParseTransportKind accepts the canonical names plus a few aliases.
func ParseTransportKind(s string) (TransportKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "websocket", "ws", "wss", "persistent-socket":
		return TransportWebSocket, nil
	case "http", "https", "stateless-request":
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("%w: unsupported transport %q", ErrInvalidConfig, s)
	}
}

// CredentialKind is the authentication scheme attached to requests.
type CredentialKind string

// Credential kinds
const (
	CredentialNone   CredentialKind = "none"
	CredentialBearer CredentialKind = "bearer"
	CredentialBasic  CredentialKind = "basic"
)

// Credential is an opaque credential and the scheme used to present it.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// EndpointConfig describes how to reach an endpoint. Connect copies it, so
// changes made by the caller afterwards have no effect on a live connection.
type EndpointConfig struct {
	URL        string
	Transport  TransportKind
	Timeout    time.Duration
	Credential Credential
}

// normalize fills defaults and validates the configuration.
func (c EndpointConfig) normalize() (EndpointConfig, error) {
	if strings.TrimSpace(c.URL) == "" {
		return c, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u.Host == "" {
		return c, fmt.Errorf("%w: url %q has no host", ErrInvalidConfig, c.URL)
	}

	if c.Transport == "" {
		switch u.Scheme {
		case "ws", "wss":
			c.Transport = TransportWebSocket
		default:
			c.Transport = TransportHTTP
		}
	}
	switch c.Transport {
	case TransportWebSocket:
		if u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "http" && u.Scheme != "https" {
			return c, fmt.Errorf("%w: scheme %q cannot carry a websocket", ErrInvalidConfig, u.Scheme)
		}
	case TransportHTTP:
		if u.Scheme != "http" && u.Scheme != "https" {
			return c, fmt.Errorf("%w: scheme %q is not http(s)", ErrInvalidConfig, u.Scheme)
		}
	default:
		return c, fmt.Errorf("%w: unsupported transport %q", ErrInvalidConfig, c.Transport)
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout < MinTimeout {
		return c, fmt.Errorf("%w: timeout %v is below the minimum of %v", ErrInvalidConfig, c.Timeout, MinTimeout)
	}

	switch c.Credential.Kind {
	case "":
		c.Credential.Kind = CredentialNone
	case CredentialNone, CredentialBearer, CredentialBasic:
	default:
		return c, fmt.Errorf("%w: unsupported credential kind %q", ErrInvalidConfig, c.Credential.Kind)
	}
	if c.Credential.Kind != CredentialNone && c.Credential.Value == "" {
		return c, fmt.Errorf("%w: %s credential has no value", ErrInvalidConfig, c.Credential.Kind)
	}
	return c, nil
}

// Status is the connection state of a Client.
type Status int32

// Connection states
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// MarshalText renders the status name, so statuses serialize as strings.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
