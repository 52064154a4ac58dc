package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rickgao/snake-client/internal/events"
)

// EventSink receives connection events.
//
// The manager enqueues under its own lock, which fixes the order in which
// events are seen, and flushes after releasing it. Handlers may therefore
// call back into the manager.
type EventSink interface {
	Enqueue(e events.Event)
	Flush()
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDialer replaces the default WebSocket dialer.
func WithDialer(d Dialer) ManagerOption {
	return func(m *Manager) { m.dialer = d }
}

// WithClock replaces the real clock used for the reconnect timer.
func WithClock(c clockwork.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// Manager owns the single connection to the game server.
//
// All state is guarded by mu. Each dial attempt gets a new generation;
// dial results, closures and timer fires carrying an older generation are
// ignored, so nothing from before a Disconnect can change state after it.
type Manager struct {
	cfg    ManagerConfig
	dialer Dialer
	frames FrameHandler
	sink   EventSink
	clock  clockwork.Clock
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	endpoint   string
	conn       Conn
	attemptID  string
	attempts   int
	generation uint64
	timer      clockwork.Timer
	cancelDial context.CancelFunc
	closed     bool

	// Dial and read goroutines
	wg sync.WaitGroup

	opens               int64
	dialFailures        int64
	drops               int64
	reconnectsScheduled int64
	exhausted           int64
	framesSent          int64
	sendsRejected       int64
}

// NewManager creates a Connection Manager in the Idle state. Inbound frames
// go to frames; lifecycle events go to sink. frames is called with the
// manager lock held and should publish by enqueueing on sink, which the
// manager flushes after each frame.
func NewManager(cfg ManagerConfig, frames FrameHandler, sink EventSink, opts ...ManagerOption) *Manager {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultManagerConfig().ReconnectInterval
	}
	if cfg.MaxReconnectAttempts < 0 {
		cfg.MaxReconnectAttempts = 0
	}

	m := &Manager{
		cfg:      cfg,
		frames:   frames,
		sink:     sink,
		endpoint: cfg.URL,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.dialer == nil {
		m.dialer = NewWebSocketDialer(DefaultTransportConfig(), m.logger)
	}

	return m
}

// Connect starts an asynchronous connection attempt. An empty endpoint
// reuses the last one. Connect is a no-op while Connecting or Open.
//
// The outcome is reported through events: connected=true on success,
// connected=false and error on failure.
func (m *Manager) Connect(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		m.logger.Warn("connect after close ignored")
		return
	}

	switch m.state {
	case StateConnecting, StateOpen:
		m.logger.Debug("connect ignored", "state", m.state.String())
		return
	case StateIdle:
		// A fresh connect gets a fresh reconnect budget
		m.attempts = 0
	}

	if endpoint != "" {
		m.endpoint = endpoint
	}

	m.stopTimerLocked()
	m.beginDialLocked()
}

// Disconnect closes the connection and cancels any pending reconnect or
// dial. It emits connected=false only if the connection was Open. Calling
// it again has no effect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return
	}

	wasOpen := m.state == StateOpen
	m.generation++
	m.stopTimerLocked()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	conn := m.conn
	m.conn = nil
	m.attempts = 0
	m.setStateLocked(StateIdle)
	if wasOpen {
		m.sink.Enqueue(events.Connected(false))
	}

	m.logger.Info("disconnected", "url", m.endpoint, "attempt_id", m.attemptID)
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.sink.Flush()
}

// Close disconnects and waits for the dial and read goroutines to exit.
// Connect has no effect afterwards. Close must not be called from an event
// handler, since handlers run on those goroutines; use Disconnect there.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	m.mu.Unlock()

	m.Disconnect()
	m.wg.Wait()
	return nil
}

// SendRaw writes one frame. It returns ErrNotConnected unless the
// connection is Open; the frame is then dropped, not queued.
func (m *Manager) SendRaw(data []byte) error {
	m.mu.Lock()
	if m.state != StateOpen || m.conn == nil {
		m.sendsRejected++
		state := m.state
		m.mu.Unlock()
		m.logger.Warn("send dropped, not connected", "state", state.String())
		return ErrNotConnected
	}
	conn := m.conn
	m.mu.Unlock()

	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}

	m.mu.Lock()
	m.framesSent++
	m.mu.Unlock()
	return nil
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the number of reconnects scheduled since the last
// successful open.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Endpoint returns the endpoint used by the next connection attempt.
func (m *Manager) Endpoint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerStats{
		State:               m.state,
		Attempts:            m.attempts,
		Opens:               m.opens,
		DialFailures:        m.dialFailures,
		Drops:               m.drops,
		ReconnectsScheduled: m.reconnectsScheduled,
		Exhausted:           m.exhausted,
		FramesSent:          m.framesSent,
		SendsRejected:       m.sendsRejected,
	}
}

// beginDialLocked moves to Connecting and dials in the background.
func (m *Manager) beginDialLocked() {
	m.generation++
	gen := m.generation
	m.attemptID = uuid.NewString()
	m.setStateLocked(StateConnecting)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelDial = cancel

	m.logger.Info("connecting",
		"url", m.endpoint,
		"attempt_id", m.attemptID,
		"attempts", m.attempts,
	)

	m.wg.Add(1)
	go m.dial(ctx, gen, m.endpoint)
}

// dial runs one connection attempt.
func (m *Manager) dial(ctx context.Context, gen uint64, endpoint string) {
	defer m.wg.Done()

	conn, err := m.dialer.Dial(ctx, endpoint)

	m.mu.Lock()
	if gen != m.generation {
		// Superseded by Disconnect
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}

	if err != nil {
		m.dialFailures++
		m.logger.Warn("connect failed",
			"url", endpoint,
			"attempt_id", m.attemptID,
			"error", err,
		)
		m.failLocked(err)
		m.mu.Unlock()
		m.sink.Flush()
		return
	}

	m.conn = conn
	m.attempts = 0
	m.opens++
	m.setStateLocked(StateOpen)
	m.sink.Enqueue(events.Connected(true))
	m.logger.Info("connected", "url", endpoint, "attempt_id", m.attemptID)

	m.wg.Add(1)
	go m.readLoop(gen, conn)
	m.mu.Unlock()

	m.sink.Flush()
}

// readLoop hands frames to the router until the connection fails.
func (m *Manager) readLoop(gen uint64, conn Conn) {
	defer m.wg.Done()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.handleClosed(gen, conn, err)
			return
		}

		// Routing under mu orders frame events against Disconnect's
		// connected=false; nothing read after Disconnect is routed.
		m.mu.Lock()
		if gen != m.generation {
			m.mu.Unlock()
			return
		}
		m.frames.Route(data)
		m.mu.Unlock()

		m.sink.Flush()
	}
}

// handleClosed reacts to the transport reporting closure.
func (m *Manager) handleClosed(gen uint64, conn Conn, cause error) {
	m.mu.Lock()
	if gen != m.generation || m.conn != conn {
		m.mu.Unlock()
		return
	}

	m.conn = nil
	m.drops++
	m.logger.Warn("connection closed",
		"url", m.endpoint,
		"attempt_id", m.attemptID,
		"error", cause,
	)
	m.failLocked(cause)
	m.mu.Unlock()

	conn.Close()
	m.sink.Flush()
}

// failLocked moves to Closed, reports the failure and schedules the next
// attempt.
func (m *Manager) failLocked(cause error) {
	m.setStateLocked(StateClosed)
	m.sink.Enqueue(events.Connected(false))
	m.sink.Enqueue(events.Error(fmt.Errorf("%w: %v", ErrTransport, cause)))
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer, or gives up
// when the attempt budget is spent.
func (m *Manager) scheduleReconnectLocked() {
	if limit := m.cfg.MaxReconnectAttempts; limit > 0 && m.attempts >= limit {
		m.exhausted++
		m.logger.Error("reconnect attempts exhausted",
			"url", m.endpoint,
			"attempts", m.attempts,
		)
		m.setStateLocked(StateIdle)
		ev := events.ReconnectExhausted()
		ev.Err = fmt.Errorf("%w after %d attempts", ErrReconnectExhausted, m.attempts)
		m.sink.Enqueue(ev)
		return
	}

	m.attempts++
	delay := m.reconnectDelay(m.attempts)
	m.reconnectsScheduled++
	m.setStateLocked(StateReconnectPending)

	m.stopTimerLocked()
	gen := m.generation
	m.timer = m.clock.AfterFunc(delay, func() { m.reconnectFired(gen) })

	m.logger.Info("reconnect scheduled",
		"url", m.endpoint,
		"attempt", m.attempts,
		"delay", delay,
	)
}

// reconnectFired is the reconnect timer callback.
func (m *Manager) reconnectFired(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.state != StateReconnectPending {
		return
	}
	m.timer = nil
	m.beginDialLocked()
}

// reconnectDelay returns the wait before the given attempt. Backoff
// doubles from the interval up to the cap; with no cap above the interval
// the delay is fixed.
func (m *Manager) reconnectDelay(attempt int) time.Duration {
	base := m.cfg.ReconnectInterval
	limit := m.cfg.ReconnectMaxInterval
	if limit <= base {
		return base
	}

	delay := base
	for i := 1; i < attempt && delay < limit; i++ {
		delay *= 2
	}
	if delay > limit {
		delay = limit
	}
	return delay
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setStateLocked(next State) {
	if m.state == next {
		return
	}
	if !m.state.CanTransition(next) {
		m.logger.Error("invalid state transition",
			"from", m.state.String(),
			"to", next.String(),
		)
	}
	m.logger.Debug("state change", "from", m.state.String(), "to", next.String())
	m.state = next
}
