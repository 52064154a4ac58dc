package router

import "github.com/rickgao/snake-client/internal/events"

// Publisher receives the events derived from a frame.
type Publisher interface {
	Publish(e events.Event)
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	FramesReceived  int64
	Snapshots       int64
	GenericMessages int64
	ProtocolErrors  int64
}
