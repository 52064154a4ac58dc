package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rickgao/snake-client/internal/version"
)

// WebSocketDialer dials game servers with gorilla/websocket.
type WebSocketDialer struct {
	cfg    TransportConfig
	logger *slog.Logger
	header http.Header
}

// NewWebSocketDialer creates a dialer.
func NewWebSocketDialer(cfg TransportConfig, logger *slog.Logger) *WebSocketDialer {
	if logger == nil {
		logger = slog.Default()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("User-Agent", version.UserAgent())

	return &WebSocketDialer{
		cfg:    cfg,
		logger: logger,
		header: header,
	}
}

// ValidateURL checks that endpoint is an absolute ws:// or wss:// URL.
func ValidateURL(endpoint string) error {
	if endpoint == "" {
		return ErrEmptyEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: %q", ErrUnsupportedEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("parse endpoint: missing host in %q", endpoint)
	}
	return nil
}

// Dial opens a connection to endpoint.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	if err := ValidateURL(endpoint); err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.cfg.HandshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, endpoint, d.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &wsConn{
		cfg:    d.cfg,
		logger: d.logger,
		conn:   ws,
		done:   make(chan struct{}),
	}
	c.start()

	d.logger.Debug("websocket connected", "url", endpoint)

	return c, nil
}

// wsConn implements Conn over a gorilla connection.
type wsConn struct {
	cfg    TransportConfig
	logger *slog.Logger

	conn *websocket.Conn
	done chan struct{}

	// Write serialization
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// start installs the keepalive handlers and the heartbeat goroutine.
func (c *wsConn) start() {
	c.extendReadDeadline()

	// Server sends ping, we respond with pong
	c.conn.SetPingHandler(func(data string) error {
		c.extendReadDeadline()
		err := c.conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	// Server responds to our ping
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	if c.cfg.PingInterval > 0 {
		go c.heartbeatLoop()
	}
}

// extendReadDeadline pushes the stale deadline forward. A read that passes
// the deadline fails, which the manager treats as closure.
func (c *wsConn) extendReadDeadline() {
	if c.cfg.PingTimeout <= 0 {
		return
	}
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PingTimeout))
}

// ReadMessage returns the payload of the next text or binary frame.
func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil, ErrAlreadyClosed
			default:
			}
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				return nil, fmt.Errorf("%w: %v", ErrStaleConnection, err)
			}
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// WriteMessage sends data as one text frame.
func (c *wsConn) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return ErrAlreadyClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and releases the connection.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// heartbeatLoop sends keepalive pings until the connection closes.
func (c *wsConn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if c.cfg.WriteTimeout <= 0 {
				deadline = time.Now().Add(time.Second)
			}
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}
