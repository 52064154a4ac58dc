// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns at most one WebSocket connection to the game server
//   - Drives the Idle → Connecting → Open → Closed → ReconnectPending cycle
//   - Retries failed or dropped connections on a single reconnect timer
//   - Hands every inbound frame to the Message Router in read order
//   - Publishes connected, error and reconnectExhausted events
package connection
