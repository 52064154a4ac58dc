package connection

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	// ErrTransport marks a failure to open or keep the connection.
	// It is reported through the error event, never returned to callers of
	// Connect.
	ErrTransport = errors.New("transport error")

	ErrNotConnected        = errors.New("not connected")
	ErrAlreadyClosed       = errors.New("already closed")
	ErrReconnectExhausted  = errors.New("reconnect attempts exhausted")
	ErrStaleConnection     = errors.New("connection stale (no pong)")
	ErrEmptyEndpoint       = errors.New("empty endpoint")
	ErrUnsupportedEndpoint = errors.New("endpoint scheme must be ws or wss")
)

// DefaultURL is the endpoint used when none is configured.
const DefaultURL = "ws://localhost:8080/ws"

// State is the lifecycle state of the managed connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateReconnectPending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateReconnectPending:
		return "reconnect_pending"
	default:
		return "unknown"
	}
}

// transitions lists the legal moves of the state machine.
var transitions = map[State][]State{
	StateIdle:             {StateConnecting},
	StateConnecting:       {StateOpen, StateClosed, StateIdle},
	StateOpen:             {StateClosed, StateIdle},
	StateClosed:           {StateReconnectPending, StateConnecting, StateIdle},
	StateReconnectPending: {StateConnecting, StateIdle},
}

// CanTransition reports whether the machine may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Conn is an open bidirectional text-frame channel.
type Conn interface {
	// ReadMessage blocks until the next frame arrives or the connection
	// fails. After Close it returns an error.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one text frame. Concurrent calls are serialized.
	WriteMessage(data []byte) error

	// Close tears the connection down. It is safe to call more than once.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// FrameHandler receives every inbound frame in read order. Route runs
// with the manager lock held; it must not call back into the Manager.
type FrameHandler interface {
	Route(data []byte)
}

// TransportConfig configures the WebSocket dialer.
type TransportConfig struct {
	HandshakeTimeout time.Duration // Max time for the opening handshake
	WriteTimeout     time.Duration // Write deadline for sends
	PingInterval     time.Duration // Keepalive ping period (0 = no pings)
	PingTimeout      time.Duration // Max time without pong before the connection is stale (0 = never)
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      60 * time.Second,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	URL                  string        // Endpoint used when Connect is given none
	ReconnectInterval    time.Duration // Wait before each reconnect attempt
	ReconnectMaxInterval time.Duration // Backoff cap; above ReconnectInterval enables doubling
	MaxReconnectAttempts int           // Reconnects after a failure before giving up (0 = unbounded)
}

// DefaultManagerConfig returns sensible defaults: a fixed five second
// interval, retried forever.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		URL:               DefaultURL,
		ReconnectInterval: 5 * time.Second,
	}
}

// ManagerStats is a point-in-time view of the Connection Manager.
type ManagerStats struct {
	State               State
	Attempts            int   // Reconnects scheduled since the last open
	Opens               int64 // Successful dials
	DialFailures        int64
	Drops               int64 // Unexpected closures of an open connection
	ReconnectsScheduled int64
	Exhausted           int64
	FramesSent          int64
	SendsRejected       int64
}
