package router

import (
	"log/slog"
	"sync"

	"github.com/rickgao/snake-client/internal/events"
	"github.com/rickgao/snake-client/internal/protocol"
)

// Router parses raw frames and publishes typed events.
type Router struct {
	out    Publisher
	logger *slog.Logger

	mu             sync.RWMutex
	received       int64
	snapshots      int64
	generic        int64
	protocolErrors int64
}

// NewRouter creates a Router publishing to out.
func NewRouter(out Publisher, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		out:    out,
		logger: logger,
	}
}

// Route classifies one frame. A frame that fails to decode is logged and
// dropped; it never produces an event.
func (r *Router) Route(data []byte) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	frame, err := protocol.Decode(data)
	if err != nil {
		r.logger.Warn("dropping inbound frame",
			"error", err,
			"size", len(data),
		)
		r.mu.Lock()
		r.protocolErrors++
		r.mu.Unlock()
		return
	}

	switch frame.Kind {
	case protocol.FrameSnapshot:
		r.mu.Lock()
		r.snapshots++
		r.mu.Unlock()

		for _, e := range events.FromSnapshot(frame.Snapshot) {
			r.out.Publish(e)
		}

	case protocol.FrameGeneric:
		r.mu.Lock()
		r.generic++
		r.mu.Unlock()

		r.logger.Debug("forwarding generic frame", "size", len(data))
		r.out.Publish(events.Message(frame.Raw))
	}
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RouterStats{
		FramesReceived:  r.received,
		Snapshots:       r.snapshots,
		GenericMessages: r.generic,
		ProtocolErrors:  r.protocolErrors,
	}
}
