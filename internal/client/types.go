package client

import (
	"errors"
	"time"

	"github.com/rickgao/snake-client/internal/connection"
	"github.com/rickgao/snake-client/internal/events"
)

// Errors
var (
	// ErrConfigDelivery is returned when the session configuration could not
	// be sent because the connection never opened. It is recoverable; the
	// caller may try again.
	ErrConfigDelivery = errors.New("config delivery failed")
)

// Delivery defaults for SendConfig.
const (
	DefaultDeliveryAttempts = 5
	DefaultDeliveryDelay    = 50 * time.Millisecond
)

// Connection is the part of the Connection Manager the client drives.
type Connection interface {
	Connect(endpoint string)
	Disconnect()
	SendRaw(data []byte) error
	State() connection.State
}

// Bus is the subscription side of the event dispatcher.
type Bus interface {
	Subscribe(kind events.Kind, h events.Handler) (events.Subscription, error)
	Unsubscribe(sub events.Subscription) bool
}
