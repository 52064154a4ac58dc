// Package router classifies inbound frames and publishes the derived
// events.
//
// The Connection Manager hands every frame it reads to Route, in the order
// the transport delivered them. Snapshots become gameState plus the derived
// gameStarted/gameOver events; other JSON objects become generic message
// events. Frames that fail to decode are counted, logged and dropped.
//
// Route runs under the manager's lock, so the router is wired to the
// dispatcher's Deferred publisher and the manager flushes afterwards.
package router
