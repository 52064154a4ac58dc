package config

import (
	"time"

	"github.com/rickgao/snake-client/internal/protocol"
)

// Default values for optional configuration fields.
const (
	DefaultScheme            = "ws"
	DefaultHost              = "localhost"
	DefaultPort              = 8080
	DefaultPath              = "/ws"
	DefaultReconnectInterval = 5 * time.Second
	DefaultDeliveryAttempts  = 5
	DefaultDeliveryDelay     = 50 * time.Millisecond
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultPingTimeout       = 60 * time.Second
	DefaultGridWidth         = 20
	DefaultGridHeight        = 20
	DefaultGameSpeed         = 150
	DefaultSnakeStartSize    = 3
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
)

// Default returns a configuration with every default applied, for running
// without a config file. Load decodes the file over it.
func Default() *ClientConfig {
	cfg := &ClientConfig{
		Delivery: DeliveryConfig{Delay: DefaultDeliveryDelay},
		Session:  protocol.SessionConfig{GameSpeed: DefaultGameSpeed},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills fields whose zero value is unusable. Zero is a valid
// session.game_speed and delivery.delay, so those are only seeded by
// Default and an explicit zero survives.
func (c *ClientConfig) applyDefaults() {
	// Server defaults
	if c.Server.Scheme == "" {
		c.Server.Scheme = DefaultScheme
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}

	// Reconnect defaults
	if c.Reconnect.Interval == 0 {
		c.Reconnect.Interval = DefaultReconnectInterval
	}

	// Delivery defaults
	if c.Delivery.Attempts == 0 {
		c.Delivery.Attempts = DefaultDeliveryAttempts
	}

	// Transport defaults
	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.PingInterval == 0 {
		c.Transport.PingInterval = DefaultPingInterval
	}
	if c.Transport.PingTimeout == 0 {
		c.Transport.PingTimeout = DefaultPingTimeout
	}

	// Session defaults
	if c.Session.GridWidth == 0 {
		c.Session.GridWidth = DefaultGridWidth
	}
	if c.Session.GridHeight == 0 {
		c.Session.GridHeight = DefaultGridHeight
	}
	if c.Session.SnakeStartSize == 0 {
		c.Session.SnakeStartSize = DefaultSnakeStartSize
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
