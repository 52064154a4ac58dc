package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Server.Scheme != "ws" && c.Server.Scheme != "wss" {
		return fmt.Errorf("server.scheme must be ws or wss, got %q", c.Server.Scheme)
	}
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Reconnect.Interval <= 0 {
		return errors.New("reconnect.interval must be > 0")
	}
	if c.Reconnect.MaxInterval < 0 {
		return errors.New("reconnect.max_interval must be >= 0")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return errors.New("reconnect.max_attempts must be >= 0")
	}

	if c.Delivery.Attempts < 1 {
		return errors.New("delivery.attempts must be >= 1")
	}
	if c.Delivery.Delay < 0 {
		return errors.New("delivery.delay must be >= 0")
	}

	if c.Transport.PingInterval > 0 && c.Transport.PingTimeout > 0 && c.Transport.PingTimeout <= c.Transport.PingInterval {
		return fmt.Errorf("transport.ping_timeout (%s) must exceed transport.ping_interval (%s)",
			c.Transport.PingTimeout, c.Transport.PingInterval)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
