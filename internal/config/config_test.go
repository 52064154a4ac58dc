package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  scheme: wss
  host: snake.example.com
  port: 443
  path: /game
reconnect:
  interval: 2s
  max_attempts: 5
session:
  grid_width: 30
  grid_height: 15
  game_speed: 80
  snake_start_size: 4
  show_debug_numbers: true
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "snake.example.com" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "snake.example.com")
	}
	if cfg.Reconnect.Interval != 2*time.Second {
		t.Errorf("Reconnect.Interval = %v, want 2s", cfg.Reconnect.Interval)
	}
	if cfg.Reconnect.MaxAttempts != 5 {
		t.Errorf("Reconnect.MaxAttempts = %d, want 5", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Session.GridWidth != 30 || cfg.Session.GridHeight != 15 {
		t.Errorf("Session grid = %dx%d, want 30x15", cfg.Session.GridWidth, cfg.Session.GridHeight)
	}
	if !cfg.Session.ShowDebugNumbers {
		t.Error("Session.ShowDebugNumbers = false, want true")
	}
	if got := cfg.Server.URL(); got != "wss://snake.example.com:443/game" {
		t.Errorf("Server.URL() = %q", got)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SNAKE_HOST", "10.0.0.7")

	yaml := `
server:
  host: ${TEST_SNAKE_HOST}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "10.0.0.7" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "10.0.0.7")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeTempFile(t, "server: [unterminated")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "logging:\n  level: debug\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if got := cfg.Server.URL(); got != "ws://localhost:8080/ws" {
		t.Errorf("Server.URL() = %q, want default ws://localhost:8080/ws", got)
	}
	if cfg.Reconnect.Interval != DefaultReconnectInterval {
		t.Errorf("Reconnect.Interval = %v, want default %v", cfg.Reconnect.Interval, DefaultReconnectInterval)
	}
	if cfg.Reconnect.MaxAttempts != 0 {
		t.Errorf("Reconnect.MaxAttempts = %d, want 0 (unbounded)", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Delivery.Attempts != DefaultDeliveryAttempts || cfg.Delivery.Delay != DefaultDeliveryDelay {
		t.Errorf("Delivery = %+v, want %d attempts every %v", cfg.Delivery, DefaultDeliveryAttempts, DefaultDeliveryDelay)
	}
	if cfg.Session.GridWidth != DefaultGridWidth {
		t.Errorf("Session.GridWidth = %d, want default %d", cfg.Session.GridWidth, DefaultGridWidth)
	}
	if cfg.Session.GameSpeed != DefaultGameSpeed {
		t.Errorf("Session.GameSpeed = %d, want default %d", cfg.Session.GameSpeed, DefaultGameSpeed)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug (explicit)", cfg.Logging.Level)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	yaml := `
delivery:
  delay: 0s
session:
  game_speed: 0
  grid_width: 10
  grid_height: 10
  snake_start_size: 1
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Session.GameSpeed != 0 {
		t.Errorf("Session.GameSpeed = %d, want 0 (explicit)", cfg.Session.GameSpeed)
	}
	if cfg.Delivery.Delay != 0 {
		t.Errorf("Delivery.Delay = %v, want 0 (explicit)", cfg.Delivery.Delay)
	}
	if cfg.Session.GridWidth != 10 || cfg.Session.SnakeStartSize != 1 {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Delivery.Attempts != DefaultDeliveryAttempts {
		t.Errorf("Delivery.Attempts = %d, want default %d", cfg.Delivery.Attempts, DefaultDeliveryAttempts)
	}
}

func TestLoadMissingKeysKeepDefaults(t *testing.T) {
	path := writeTempFile(t, "session:\n  grid_width: 12\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.GridWidth != 12 {
		t.Errorf("Session.GridWidth = %d, want 12", cfg.Session.GridWidth)
	}
	if cfg.Session.GameSpeed != DefaultGameSpeed {
		t.Errorf("Session.GameSpeed = %d, want default %d", cfg.Session.GameSpeed, DefaultGameSpeed)
	}
	if cfg.Session.GridHeight != DefaultGridHeight {
		t.Errorf("Session.GridHeight = %d, want default %d", cfg.Session.GridHeight, DefaultGridHeight)
	}
	if cfg.Delivery.Delay != DefaultDeliveryDelay {
		t.Errorf("Delivery.Delay = %v, want default %v", cfg.Delivery.Delay, DefaultDeliveryDelay)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "server:\n  scheme: http\n")

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.HasPrefix(err.Error(), "validate config: server.scheme") {
		t.Errorf("LoadAndValidate() error = %q", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ClientConfig)
		wantErr string
	}{
		{
			name:    "bad scheme",
			mutate:  func(c *ClientConfig) { c.Server.Scheme = "http" },
			wantErr: `server.scheme must be ws or wss, got "http"`,
		},
		{
			name:    "port out of range",
			mutate:  func(c *ClientConfig) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "negative interval",
			mutate:  func(c *ClientConfig) { c.Reconnect.Interval = -time.Second },
			wantErr: "reconnect.interval must be > 0",
		},
		{
			name:    "negative max attempts",
			mutate:  func(c *ClientConfig) { c.Reconnect.MaxAttempts = -1 },
			wantErr: "reconnect.max_attempts must be >= 0",
		},
		{
			name:    "negative delivery attempts",
			mutate:  func(c *ClientConfig) { c.Delivery.Attempts = -2 },
			wantErr: "delivery.attempts must be >= 1",
		},
		{
			name: "ping timeout below interval",
			mutate: func(c *ClientConfig) {
				c.Transport.PingInterval = 30 * time.Second
				c.Transport.PingTimeout = 10 * time.Second
			},
			wantErr: "transport.ping_timeout (10s) must exceed transport.ping_interval (30s)",
		},
		{
			name:    "negative game speed",
			mutate:  func(c *ClientConfig) { c.Session.GameSpeed = -1 },
			wantErr: "session: invalid command: gameSpeed must be >= 0, got -1",
		},
		{
			name:    "bad log level",
			mutate:  func(c *ClientConfig) { c.Logging.Level = "loud" },
			wantErr: `logging.level must be one of debug, info, warn, error, got "loud"`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *ClientConfig) { c.Logging.Format = "xml" },
			wantErr: `logging.format must be text or json, got "xml"`,
		},
		{
			name:    "valid config",
			mutate:  func(c *ClientConfig) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestStackConfig(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 9000
	cfg.Reconnect.MaxAttempts = 3
	cfg.Reconnect.MaxInterval = time.Minute

	sc := cfg.StackConfig()
	if sc.Manager.URL != "ws://localhost:9000/ws" {
		t.Errorf("Manager.URL = %q", sc.Manager.URL)
	}
	if sc.Manager.MaxReconnectAttempts != 3 || sc.Manager.ReconnectMaxInterval != time.Minute {
		t.Errorf("Manager = %+v", sc.Manager)
	}
	if sc.Transport.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Transport.WriteTimeout = %v", sc.Transport.WriteTimeout)
	}
	if sc.DeliveryAttempts != DefaultDeliveryAttempts || sc.DeliveryDelay != DefaultDeliveryDelay {
		t.Errorf("delivery = %d/%v", sc.DeliveryAttempts, sc.DeliveryDelay)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
