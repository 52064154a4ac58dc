// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection state, opens, drops and reconnect scheduling
//   - Inbound frame rates by classification and protocol errors
//   - Events delivered by kind and handler panics
//   - Session config delivery outcomes
package metrics
