package client

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rickgao/snake-client/internal/connection"
	"github.com/rickgao/snake-client/internal/events"
	"github.com/rickgao/snake-client/internal/router"
)

// StackConfig configures NewStack.
type StackConfig struct {
	Manager          connection.ManagerConfig
	Transport        connection.TransportConfig
	DeliveryAttempts int
	DeliveryDelay    time.Duration
}

// DefaultStackConfig returns sensible defaults.
func DefaultStackConfig() StackConfig {
	return StackConfig{
		Manager:          connection.DefaultManagerConfig(),
		Transport:        connection.DefaultTransportConfig(),
		DeliveryAttempts: DefaultDeliveryAttempts,
		DeliveryDelay:    DefaultDeliveryDelay,
	}
}

// Stack is a fully wired client: dispatcher, router, manager and command
// API sharing one logger and clock.
type Stack struct {
	Client     *Client
	Manager    *connection.Manager
	Router     *router.Router
	Dispatcher *events.Dispatcher
}

// NewStack wires the components. A nil clock means the real one.
func NewStack(cfg StackConfig, clk clockwork.Clock, logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	dispatcher := events.NewDispatcher(logger.With("component", "dispatcher"))
	rt := router.NewRouter(dispatcher.Deferred(), logger.With("component", "router"))
	mgr := connection.NewManager(cfg.Manager, rt, dispatcher,
		connection.WithDialer(connection.NewWebSocketDialer(cfg.Transport, logger.With("component", "transport"))),
		connection.WithClock(clk),
		connection.WithLogger(logger.With("component", "connection")),
	)
	c := New(mgr, dispatcher,
		WithDelivery(cfg.DeliveryAttempts, cfg.DeliveryDelay),
		WithClock(clk),
		WithLogger(logger.With("component", "client")),
	)

	return &Stack{
		Client:     c,
		Manager:    mgr,
		Router:     rt,
		Dispatcher: dispatcher,
	}
}

// Close disconnects and waits for background goroutines.
func (s *Stack) Close() error {
	return s.Manager.Close()
}
