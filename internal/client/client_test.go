package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rickgao/snake-client/internal/connection"
	"github.com/rickgao/snake-client/internal/events"
	"github.com/rickgao/snake-client/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnection opens after a number of SendRaw calls have been rejected.
type fakeConnection struct {
	mu sync.Mutex

	rejectFirst int   // SendRaw calls that fail with ErrNotConnected
	writeErr    error // Returned once open, if set

	sends       int
	sent        []string
	connects    []string
	disconnects int
}

func (f *fakeConnection) Connect(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, endpoint)
}

func (f *fakeConnection) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeConnection) SendRaw(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.sends <= f.rejectFirst {
		return connection.ErrNotConnected
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.sent = append(f.sent, string(data))
	return nil
}

func (f *fakeConnection) State() connection.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sends < f.rejectFirst {
		return connection.StateConnecting
	}
	return connection.StateOpen
}

func (f *fakeConnection) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func (f *fakeConnection) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

var testConfig = protocol.SessionConfig{
	GridWidth:      20,
	GridHeight:     20,
	GameSpeed:      150,
	SnakeStartSize: 3,
}

const testConfigJSON = `{"gridWidth":20,"gridHeight":20,"gameSpeed":150,"snakeStartSize":3,"showDebugNumbers":false}`

func TestClient_Commands(t *testing.T) {
	tests := []struct {
		name string
		send func(c *Client) error
		want string
	}{
		{"start", (*Client).Start, `{"key":" "}`},
		{"restart", (*Client).Restart, `{"key":"r"}`},
		{"quit", (*Client).Quit, `{"key":"q"}`},
		{"up", func(c *Client) error { return c.SendInput(protocol.KeyUp) }, `{"key":"ArrowUp"}`},
		{"left", func(c *Client) error { return c.SendInput(protocol.KeyLeft) }, `{"key":"ArrowLeft"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConnection{}
			c := New(conn, events.NewDispatcher(nil))

			require.NoError(t, tt.send(c))
			assert.Equal(t, []string{tt.want}, conn.frames())
		})
	}
}

func TestClient_QuitKeepsConnection(t *testing.T) {
	conn := &fakeConnection{}
	c := New(conn, events.NewDispatcher(nil))

	require.NoError(t, c.Quit())
	assert.Equal(t, 0, conn.disconnects)
}

func TestClient_SendInputRejectsUnknownKey(t *testing.T) {
	conn := &fakeConnection{}
	c := New(conn, events.NewDispatcher(nil))

	err := c.SendInput(protocol.Key("x"))
	assert.ErrorIs(t, err, protocol.ErrInvalidCommand)
	assert.Equal(t, 0, conn.sendCount())
}

func TestClient_SendInputNotConnected(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 1}
	c := New(conn, events.NewDispatcher(nil))

	err := c.Start()
	assert.ErrorIs(t, err, connection.ErrNotConnected)
	assert.Empty(t, conn.frames(), "rejected frames are not queued")
}

func TestClient_Delegates(t *testing.T) {
	conn := &fakeConnection{}
	d := events.NewDispatcher(nil)
	c := New(conn, d)

	c.Connect("ws://game.test/ws")
	c.Disconnect()
	assert.Equal(t, []string{"ws://game.test/ws"}, conn.connects)
	assert.Equal(t, 1, conn.disconnects)
	assert.Equal(t, connection.StateOpen, c.State())

	var got []bool
	sub, err := c.Subscribe(events.KindConnected, func(e events.Event) { got = append(got, e.Connected) })
	require.NoError(t, err)
	assert.Equal(t, 1, d.HandlerCount(events.KindConnected))

	d.Publish(events.Connected(true))
	assert.True(t, c.Unsubscribe(sub))
	d.Publish(events.Connected(false))
	assert.Equal(t, []bool{true}, got)
}

// deliverAsync runs SendConfig in the background and steps the fake clock
// through every retry wait until it returns.
func deliverAsync(t *testing.T, c *Client, clk *clockwork.FakeClock) error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- c.SendConfig(context.Background(), testConfig) }()

	for {
		select {
		case err := <-done:
			return err
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		if clk.BlockUntilContext(ctx, 1) == nil {
			clk.Advance(DefaultDeliveryDelay)
		}
		cancel()
	}
}

// waitTimers blocks until exactly n fake timers are pending.
func waitTimers(t *testing.T, clk *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clk.BlockUntilContext(ctx, n), "waiting for %d pending timers", n)
}

func TestClient_SendConfigImmediate(t *testing.T) {
	conn := &fakeConnection{}
	clk := clockwork.NewFakeClock()
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	require.NoError(t, c.SendConfig(context.Background(), testConfig))
	assert.Equal(t, []string{testConfigJSON}, conn.frames())
	waitTimers(t, clk, 0)
}

func TestClient_SendConfigOpensDuringRetry(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 2}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clockwork.NewFakeClockAt(start)
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	err := deliverAsync(t, c, clk)
	require.NoError(t, err)

	assert.Equal(t, 3, conn.sendCount(), "stops retrying after success")
	assert.Equal(t, []string{testConfigJSON}, conn.frames())
	assert.Equal(t, 100*time.Millisecond, clk.Now().Sub(start))
}

func TestClient_SendConfigLastAttempt(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 4}
	clk := clockwork.NewFakeClock()
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	require.NoError(t, deliverAsync(t, c, clk))
	assert.Equal(t, 5, conn.sendCount())
}

func TestClient_SendConfigExhausted(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 100}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clockwork.NewFakeClockAt(start)
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	err := deliverAsync(t, c, clk)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigDelivery)
	assert.ErrorIs(t, err, connection.ErrNotConnected)

	assert.Equal(t, DefaultDeliveryAttempts, conn.sendCount())
	assert.Equal(t, 200*time.Millisecond, clk.Now().Sub(start), "four waits between five attempts")
	waitTimers(t, clk, 0)
}

func TestClient_SendConfigRecoverable(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 5}
	clk := clockwork.NewFakeClock()
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	err := deliverAsync(t, c, clk)
	require.ErrorIs(t, err, ErrConfigDelivery)

	// The connection has since opened; a second call succeeds
	require.NoError(t, c.SendConfig(context.Background(), testConfig))
	assert.Equal(t, []string{testConfigJSON}, conn.frames())
}

func TestClient_SendConfigCustomBudget(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 100}
	clk := clockwork.NewFakeClock()
	c := New(conn, events.NewDispatcher(nil), WithClock(clk), WithDelivery(2, DefaultDeliveryDelay))

	err := deliverAsync(t, c, clk)
	assert.ErrorIs(t, err, ErrConfigDelivery)
	assert.Equal(t, 2, conn.sendCount())
}

func TestClient_SendConfigCancelled(t *testing.T) {
	conn := &fakeConnection{rejectFirst: 100}
	clk := clockwork.NewFakeClock()
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.SendConfig(ctx, testConfig) }()

	waitTimers(t, clk, 1)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrConfigDelivery)
	case <-time.After(time.Second):
		t.Fatal("SendConfig did not observe cancellation")
	}
	assert.Equal(t, 1, conn.sendCount())
}

func TestClient_SendConfigWriteFailureNotRetried(t *testing.T) {
	conn := &fakeConnection{writeErr: errors.New("broken pipe")}
	clk := clockwork.NewFakeClock()
	c := New(conn, events.NewDispatcher(nil), WithClock(clk))

	err := c.SendConfig(context.Background(), testConfig)
	assert.ErrorIs(t, err, ErrConfigDelivery)
	assert.Equal(t, 1, conn.sendCount())
	waitTimers(t, clk, 0)
}

func TestClient_SendConfigInvalid(t *testing.T) {
	conn := &fakeConnection{}
	c := New(conn, events.NewDispatcher(nil))

	bad := testConfig
	bad.SnakeStartSize = 0
	err := c.SendConfig(context.Background(), bad)
	assert.ErrorIs(t, err, protocol.ErrInvalidCommand)
	assert.Equal(t, 0, conn.sendCount())
}
