package protocol

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrProtocol marks an inbound frame that is not valid JSON or does not
	// match any known shape. The frame is dropped; the connection is kept.
	ErrProtocol = errors.New("protocol error")

	// ErrInvalidCommand marks an outbound command rejected before encoding.
	ErrInvalidCommand = errors.New("invalid command")
)

// Key is a control key token sent to the game server.
type Key string

// Control keys. The server receives these verbatim.
const (
	KeyUp      Key = "ArrowUp"
	KeyDown    Key = "ArrowDown"
	KeyLeft    Key = "ArrowLeft"
	KeyRight   Key = "ArrowRight"
	KeyStart   Key = " "
	KeyRestart Key = "r"
	KeyQuit    Key = "q"
)

// Valid reports whether k belongs to the control alphabet.
func (k Key) Valid() bool {
	switch k {
	case KeyUp, KeyDown, KeyLeft, KeyRight, KeyStart, KeyRestart, KeyQuit:
		return true
	}
	return false
}

// String returns a printable name for the key. The start key is a bare
// space on the wire, which is unreadable in logs.
func (k Key) String() string {
	switch k {
	case KeyStart:
		return "Space"
	case KeyRestart:
		return "Restart"
	case KeyQuit:
		return "Quit"
	}
	return string(k)
}

// SessionConfig is the one-time configuration sent before a game starts.
// It goes on the wire as a bare object with no type field.
type SessionConfig struct {
	GridWidth        int  `json:"gridWidth" yaml:"grid_width"`
	GridHeight       int  `json:"gridHeight" yaml:"grid_height"`
	GameSpeed        int  `json:"gameSpeed" yaml:"game_speed"`
	SnakeStartSize   int  `json:"snakeStartSize" yaml:"snake_start_size"`
	ShowDebugNumbers bool `json:"showDebugNumbers" yaml:"show_debug_numbers"`
}

// Validate checks the configuration before it is sent.
func (c SessionConfig) Validate() error {
	if c.GridWidth < 1 {
		return fmt.Errorf("%w: gridWidth must be >= 1, got %d", ErrInvalidCommand, c.GridWidth)
	}
	if c.GridHeight < 1 {
		return fmt.Errorf("%w: gridHeight must be >= 1, got %d", ErrInvalidCommand, c.GridHeight)
	}
	if c.GameSpeed < 0 {
		return fmt.Errorf("%w: gameSpeed must be >= 0, got %d", ErrInvalidCommand, c.GameSpeed)
	}
	if c.SnakeStartSize < 1 {
		return fmt.Errorf("%w: snakeStartSize must be >= 1, got %d", ErrInvalidCommand, c.SnakeStartSize)
	}
	return nil
}

// Point is a grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is the authoritative game state pushed by the server.
type Snapshot struct {
	Snake       []Point `json:"snake"` // Head first
	Food        *Point  `json:"food"`  // Nil when no food is on the board
	GameOver    bool    `json:"gameOver"`
	GameWon     bool    `json:"gameWon"`
	GameStarted bool    `json:"gameStarted"`
}

// Head returns the first snake segment.
func (s *Snapshot) Head() (Point, bool) {
	if s == nil || len(s.Snake) == 0 {
		return Point{}, false
	}
	return s.Snake[0], true
}

// Score is the number of segments, as shown by the game view.
func (s *Snapshot) Score() int {
	if s == nil {
		return 0
	}
	return len(s.Snake)
}

// FrameKind classifies an inbound frame.
type FrameKind int

const (
	// FrameSnapshot is a frame that carries a snake field.
	FrameSnapshot FrameKind = iota + 1
	// FrameGeneric is any other JSON object, forwarded unclassified.
	FrameGeneric
)

func (k FrameKind) String() string {
	switch k {
	case FrameSnapshot:
		return "snapshot"
	case FrameGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Frame is a decoded inbound frame.
type Frame struct {
	Kind     FrameKind
	Snapshot *Snapshot // Set for FrameSnapshot
	Raw      []byte    // Original frame bytes
}
