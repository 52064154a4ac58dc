package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// keyCommand is the wire shape of a control command.
type keyCommand struct {
	Key Key `json:"key"`
}

// EncodeKey serializes a control command as {"key": <token>}.
func EncodeKey(k Key) ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidCommand, string(k))
	}
	return json.Marshal(keyCommand{Key: k})
}

// EncodeConfig serializes a session configuration as a bare object.
func EncodeConfig(c SessionConfig) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

// Decode parses and classifies an inbound frame.
//
// Invalid JSON, JSON that is not an object, and a snake frame whose fields
// have the wrong types all return an error wrapping ErrProtocol. An object
// with a snake field is a snapshot (a null snake decodes as an empty one);
// any other object is a generic frame.
func Decode(data []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return Frame{}, fmt.Errorf("%w: invalid json", ErrProtocol)
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Frame{}, fmt.Errorf("%w: frame is not an object", ErrProtocol)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	if _, ok := fields["snake"]; !ok {
		return Frame{Kind: FrameGeneric, Raw: data}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return Frame{}, fmt.Errorf("%w: malformed snapshot: %v", ErrProtocol, err)
	}

	return Frame{Kind: FrameSnapshot, Snapshot: &snap, Raw: data}, nil
}

// keyNames maps human input names to control keys.
var keyNames = map[string]Key{
	"up":      KeyUp,
	"w":       KeyUp,
	"arrowup": KeyUp,

	"down":      KeyDown,
	"s":         KeyDown,
	"arrowdown": KeyDown,

	"left":      KeyLeft,
	"a":         KeyLeft,
	"arrowleft": KeyLeft,

	"right":      KeyRight,
	"d":          KeyRight,
	"arrowright": KeyRight,

	"start":   KeyStart,
	"space":   KeyStart,
	"restart": KeyRestart,
	"r":       KeyRestart,
	"quit":    KeyQuit,
	"q":       KeyQuit,
}

// ParseKey resolves a key name ("up", "w", "ArrowUp", "start", ...) to a
// control key. A literal wire token is accepted as is.
func ParseKey(name string) (Key, error) {
	if k := Key(name); k.Valid() {
		return k, nil
	}
	if k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown key %q", ErrInvalidCommand, name)
}
