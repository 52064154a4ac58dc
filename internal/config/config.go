package config

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/snake-client/internal/protocol"
)

// ClientConfig is the root configuration for a snake client.
type ClientConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Reconnect ReconnectConfig        `yaml:"reconnect"`
	Delivery  DeliveryConfig         `yaml:"delivery"`
	Transport TransportConfig        `yaml:"transport"`
	Session   protocol.SessionConfig `yaml:"session"`
	Logging   LoggingConfig          `yaml:"logging"`
	Metrics   MetricsConfig          `yaml:"metrics"`
}

// ServerConfig locates the game server.
type ServerConfig struct {
	Scheme string `yaml:"scheme"` // "ws" or "wss"
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Path   string `yaml:"path"`
}

// URL returns the WebSocket endpoint, e.g. ws://localhost:8080/ws.
func (s ServerConfig) URL() string {
	u := url.URL{
		Scheme: s.Scheme,
		Host:   s.Host,
		Path:   s.Path,
	}
	if s.Port != 0 {
		u.Host = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	}
	return u.String()
}

// ReconnectConfig controls automatic reconnection.
type ReconnectConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxInterval time.Duration `yaml:"max_interval"` // Above interval enables doubling backoff
	MaxAttempts int           `yaml:"max_attempts"` // 0 = retry forever
}

// DeliveryConfig controls session config delivery retries.
type DeliveryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// TransportConfig holds WebSocket settings.
type TransportConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
