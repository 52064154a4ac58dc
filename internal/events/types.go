package events

import (
	"errors"

	"github.com/rickgao/snake-client/internal/protocol"
)

// Errors
var (
	ErrUnknownKind = errors.New("unknown event kind")
	ErrNilHandler  = errors.New("nil handler")
)

// Kind identifies an event.
type Kind int

const (
	KindConnected Kind = iota + 1
	KindGameState
	KindGameStarted
	KindGameOver
	KindError
	KindReconnectExhausted
	KindMessage
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{
	KindConnected,
	KindGameState,
	KindGameStarted,
	KindGameOver,
	KindError,
	KindReconnectExhausted,
	KindMessage,
}

func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindGameState:
		return "gameState"
	case KindGameStarted:
		return "gameStarted"
	case KindGameOver:
		return "gameOver"
	case KindError:
		return "error"
	case KindReconnectExhausted:
		return "reconnectExhausted"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	return k >= KindConnected && k <= KindMessage
}

// Event is a single notification. Which payload field is set depends on
// Kind.
type Event struct {
	Kind      Kind
	Connected bool               // KindConnected
	Snapshot  *protocol.Snapshot // KindGameState, KindGameStarted, KindGameOver
	Err       error              // KindError, KindReconnectExhausted
	Raw       []byte             // KindMessage
}

// Handler receives events of the kind it subscribed to.
type Handler func(Event)

// Connected builds a connection status event.
func Connected(up bool) Event {
	return Event{Kind: KindConnected, Connected: up}
}

// GameState builds a snapshot event.
func GameState(s *protocol.Snapshot) Event {
	return Event{Kind: KindGameState, Snapshot: s}
}

// GameStarted builds a game started event.
func GameStarted(s *protocol.Snapshot) Event {
	return Event{Kind: KindGameStarted, Snapshot: s}
}

// GameOver builds a game over event.
func GameOver(s *protocol.Snapshot) Event {
	return Event{Kind: KindGameOver, Snapshot: s}
}

// Error builds an error event.
func Error(err error) Event {
	return Event{Kind: KindError, Err: err}
}

// ReconnectExhausted builds the terminal reconnect event.
func ReconnectExhausted() Event {
	return Event{Kind: KindReconnectExhausted}
}

// Message builds a generic message event.
func Message(raw []byte) Event {
	return Event{Kind: KindMessage, Raw: raw}
}

// FromSnapshot derives the events for one snapshot: gameState always,
// gameStarted when the game is running, gameOver when it has ended. The
// last two never occur together.
func FromSnapshot(s *protocol.Snapshot) []Event {
	out := []Event{GameState(s)}
	if s.GameStarted && !s.GameOver {
		out = append(out, GameStarted(s))
	}
	if s.GameOver {
		out = append(out, GameOver(s))
	}
	return out
}
