package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rickgao/snake-client/internal/connection"
	"github.com/rickgao/snake-client/internal/events"
	"github.com/rickgao/snake-client/internal/protocol"
)

// Option configures a Client.
type Option func(*Client)

// WithDelivery sets the SendConfig retry budget.
func WithDelivery(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.deliveryAttempts = attempts
		c.deliveryDelay = delay
	}
}

// WithClock replaces the clock used between delivery attempts.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client sends commands over a Connection and exposes its events.
type Client struct {
	conn   Connection
	bus    Bus
	clock  clockwork.Clock
	logger *slog.Logger

	deliveryAttempts int
	deliveryDelay    time.Duration
}

// New creates a Client.
func New(conn Connection, bus Bus, opts ...Option) *Client {
	c := &Client{
		conn:             conn,
		bus:              bus,
		deliveryAttempts: DefaultDeliveryAttempts,
		deliveryDelay:    DefaultDeliveryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.deliveryAttempts < 1 {
		c.deliveryAttempts = 1
	}
	if c.deliveryDelay < 0 {
		c.deliveryDelay = 0
	}

	return c
}

// Connect starts connecting to endpoint. An empty endpoint reuses the last
// one.
func (c *Client) Connect(endpoint string) {
	c.conn.Connect(endpoint)
}

// Disconnect closes the connection and stops reconnecting.
func (c *Client) Disconnect() {
	c.conn.Disconnect()
}

// State returns the connection state.
func (c *Client) State() connection.State {
	return c.conn.State()
}

// Subscribe registers h for events of kind.
func (c *Client) Subscribe(kind events.Kind, h events.Handler) (events.Subscription, error) {
	return c.bus.Subscribe(kind, h)
}

// Unsubscribe removes a subscription.
func (c *Client) Unsubscribe(sub events.Subscription) bool {
	return c.bus.Unsubscribe(sub)
}

// Start asks the server to start a game.
func (c *Client) Start() error {
	return c.SendInput(protocol.KeyStart)
}

// Restart asks the server to restart the game.
func (c *Client) Restart() error {
	return c.SendInput(protocol.KeyRestart)
}

// Quit asks the server to end the game. The connection stays open.
func (c *Client) Quit() error {
	return c.SendInput(protocol.KeyQuit)
}

// SendInput sends a control key.
func (c *Client) SendInput(k protocol.Key) error {
	data, err := protocol.EncodeKey(k)
	if err != nil {
		return err
	}
	if err := c.conn.SendRaw(data); err != nil {
		return fmt.Errorf("send %s: %w", k, err)
	}
	c.logger.Debug("key sent", "key", k.String())
	return nil
}

// SendConfig delivers the session configuration, retrying while the
// connection is not yet open. It makes up to the configured number of
// attempts with the configured delay between them and returns an error
// wrapping ErrConfigDelivery if none succeeds. A write failure on an open
// connection is not retried. Cancelling ctx aborts the wait.
func (c *Client) SendConfig(ctx context.Context, cfg protocol.SessionConfig) error {
	data, err := protocol.EncodeConfig(cfg)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.deliveryAttempts; attempt++ {
		lastErr = c.conn.SendRaw(data)
		if lastErr == nil {
			c.logger.Info("session config delivered",
				"attempt", attempt,
				"grid_width", cfg.GridWidth,
				"grid_height", cfg.GridHeight,
			)
			return nil
		}
		if !errors.Is(lastErr, connection.ErrNotConnected) {
			return fmt.Errorf("%w: %w", ErrConfigDelivery, lastErr)
		}
		if attempt == c.deliveryAttempts {
			break
		}

		c.logger.Debug("config delivery waiting for connection",
			"attempt", attempt,
			"delay", c.deliveryDelay,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("deliver config: %w", ctx.Err())
		case <-c.clock.After(c.deliveryDelay):
		}
	}

	c.logger.Warn("session config not delivered",
		"attempts", c.deliveryAttempts,
		"error", lastErr,
	)
	return fmt.Errorf("%w: not open after %d attempts: %w", ErrConfigDelivery, c.deliveryAttempts, lastErr)
}
