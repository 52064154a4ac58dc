package config

import (
	"github.com/rickgao/snake-client/internal/client"
	"github.com/rickgao/snake-client/internal/connection"
)

// StackConfig converts the file configuration into component settings.
func (c *ClientConfig) StackConfig() client.StackConfig {
	return client.StackConfig{
		Manager: connection.ManagerConfig{
			URL:                  c.Server.URL(),
			ReconnectInterval:    c.Reconnect.Interval,
			ReconnectMaxInterval: c.Reconnect.MaxInterval,
			MaxReconnectAttempts: c.Reconnect.MaxAttempts,
		},
		Transport: connection.TransportConfig{
			HandshakeTimeout: c.Transport.HandshakeTimeout,
			WriteTimeout:     c.Transport.WriteTimeout,
			PingInterval:     c.Transport.PingInterval,
			PingTimeout:      c.Transport.PingTimeout,
		},
		DeliveryAttempts: c.Delivery.Attempts,
		DeliveryDelay:    c.Delivery.Delay,
	}
}
